package analysis

import (
	"fmt"

	"maildesk/internal/models"
	"maildesk/internal/utils"
)

// templateBucket pairs a keyword predicate with a template renderer. Buckets
// are evaluated top to bottom and the first match wins, so an email mentioning
// both "refund" and "broken" gets the billing reply.
type templateBucket struct {
	match  func(body, subject, sentiment string) bool
	render func(name, body, subject string) (response, tone string)
}

// fallbackConfidence is fixed high since the templates are deterministic,
// not generative.
const fallbackConfidence = 0.85

var templateBuckets = []templateBucket{
	{
		// Billing related issues
		match: func(body, subject, _ string) bool {
			return utils.ContainsAny(subject, "billing") ||
				utils.ContainsAny(body, "billing", "invoice", "charged", "payment", "refund")
		},
		render: func(name, _, _ string) (string, string) {
			return fmt.Sprintf(`Dear %s,

Thank you for contacting us regarding your billing inquiry. I understand your concern about the billing issue mentioned in your email.

Our billing team will review your account details and resolve this matter within 2-3 business days. You will receive an updated invoice or confirmation of any adjustments via email.

If you have any transaction IDs or additional details to share, please reply to this email with that information.

Best regards,
Customer Support Team
billing@support.com | 1-800-BILLING`, name), "professional"
		},
	},
	{
		// Technical issues and outages
		match: func(body, subject, _ string) bool {
			return utils.ContainsAny(body, "not working", "error", "broken", "failed", "crash", "down") ||
				utils.ContainsAny(subject, "critical", "urgent")
		},
		render: func(name, _, _ string) (string, string) {
			return fmt.Sprintf(`Dear %s,

Thank you for reporting this technical issue. I understand how frustrating this must be, especially given the impact on your operations.

Our technical team has been notified and will investigate this issue immediately. We typically resolve such matters within 4-6 hours for critical issues.

In the meantime, please try these quick troubleshooting steps:
1. Clear your browser cache and cookies
2. Try accessing from a different browser or device
3. Check your internet connection stability

We'll keep you updated on our progress. For immediate assistance, you can reach our emergency tech support at tech-support@company.com.

Best regards,
Technical Support Team`, name), "urgent yet reassuring"
		},
	},
	{
		// Feature requests or questions
		match: func(body, subject, _ string) bool {
			return utils.ContainsAny(body, "feature", "how to", "can i", "possible") ||
				utils.ContainsAny(subject, "request", "query")
		},
		render: func(name, body, _ string) (string, string) {
			middle := "I'd be happy to help you with your question. Our team will provide you with detailed information and step-by-step guidance."
			if utils.ContainsAny(body, "feature") {
				middle = "Your feature request has been forwarded to our product development team for consideration. We regularly review customer feedback when planning new features and improvements."
			}
			return fmt.Sprintf(`Dear %s,

Thank you for reaching out with your inquiry. I appreciate you taking the time to share your thoughts and questions.

%s

You can expect a comprehensive response from our team within 24-48 hours. If you have any additional questions or clarifications, please don't hesitate to reply to this email.

Best regards,
Customer Success Team
help@company.com`, name, middle), "helpful and encouraging"
		},
	},
	{
		// Security or audit related
		match: func(body, _, _ string) bool {
			return utils.ContainsAny(body, "security", "audit", "compliance", "encryption")
		},
		render: func(name, _, _ string) (string, string) {
			return fmt.Sprintf(`Dear %s,

Thank you for your security and compliance inquiry. We take data security very seriously and are happy to provide the information you need.

Our security team will compile the requested documentation and information for your audit. This typically includes:
- Security certifications and compliance documents
- Data encryption and protection policies
- Infrastructure and access control details

You should receive a comprehensive security package within 3-5 business days. For urgent security matters, please contact our security team directly at security@company.com.

Best regards,
Security & Compliance Team`, name), "professional and thorough"
		},
	},
	{
		// Confused or help-seeking users
		match: func(body, subject, _ string) bool {
			return utils.ContainsAny(body, "confused", "don't understand", "overwhelmed", "new to") ||
				utils.ContainsAny(subject, "help")
		},
		render: func(name, _, _ string) (string, string) {
			return fmt.Sprintf(`Dear %s,

Thank you for reaching out, and don't worry - we're here to help guide you through everything step by step!

I understand that getting started can feel overwhelming, but our support team specializes in helping new users like yourself. We'll provide:
- A personalized walkthrough of the platform
- Step-by-step setup instructions
- Direct access to our customer success team

One of our customer success specialists will contact you within 24 hours to schedule a convenient time for a guided session.

In the meantime, you might find our getting started guide helpful: [link to guide]

Best regards,
Customer Success Team
onboarding@company.com | 1-800-HELP-YOU`, name), "patient and supportive"
		},
	},
	{
		// Positive feedback
		match: func(body, _, sentiment string) bool {
			return sentiment == models.SentimentPositive ||
				utils.ContainsAny(body, "thank", "love", "excellent", "great")
		},
		render: func(name, _, _ string) (string, string) {
			return fmt.Sprintf(`Dear %s,

Thank you so much for your wonderful feedback! It truly means a lot to our entire team to hear that you're having a positive experience.

We'll be sure to share your kind words with the team members who helped make your experience great. Customer feedback like yours motivates us to continue improving our service.

If you ever have any questions or suggestions for how we can make things even better, please don't hesitate to reach out.

Thank you again for choosing our service and for taking the time to share your positive experience!

Best regards,
Customer Experience Team
feedback@company.com`, name), "appreciative and warm"
		},
	},
}

// fallbackResponse selects a templated reply by scanning the email for
// keyword buckets in priority order, interpolating the sender's name.
func fallbackResponse(body, subject, sender, sentiment string) ResponseGeneration {
	name := utils.SenderName(sender)

	for _, bucket := range templateBuckets {
		if bucket.match(body, subject, sentiment) {
			response, tone := bucket.render(name, body, subject)
			// Billing replies to upset customers shift to an empathetic tone
			if tone == "professional" && sentiment == models.SentimentNegative {
				tone = "empathetic and solution-focused"
			}
			return ResponseGeneration{Response: response, Tone: tone, Confidence: fallbackConfidence}
		}
	}

	// Default general acknowledgment
	response := fmt.Sprintf(`Dear %s,

Thank you for contacting our support team. We have received your message regarding "%s" and want to ensure you receive the best possible assistance.

Our team will review your inquiry and provide a detailed response within 24 hours. We appreciate your patience as we work to address your specific needs.

If this matter is urgent, please don't hesitate to call our support line at 1-800-SUPPORT or reply to this email with "URGENT" in the subject line.

Best regards,
Customer Support Team
support@company.com`, name, subject)

	return ResponseGeneration{Response: response, Tone: "professional and helpful", Confidence: fallbackConfidence}
}
