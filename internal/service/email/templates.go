// internal/service/email/templates.go
package email

import (
	"fmt"
	"strings"
	"time"

	"vaultbank-service/internal/domain/compliance"
	"vaultbank-service/internal/domain/otp"

	"github.com/flosch/pongo2/v6"
)

type otpContent struct {
	subject     string
	title       string
	description *pongo2.Template
	instruction string
	expiryHint  string
	warning     string
}

var otpContents = map[otp.Purpose]otpContent{
	otp.PurposeLogin: {
		subject:     "VaultBank Login Verification Code",
		title:       "🔐 Login Verification",
		description: pongo2.Must(pongo2.FromString(`You are attempting to log in to your VaultBank account.`)),
		instruction: "If you initiated this login request, please use the verification code below to complete your login:",
		expiryHint:  "Enter this code to access your account.",
		warning:     "If you did not attempt to log in, please ignore this email and consider changing your password immediately.",
	},
	otp.PurposeTransfer: {
		subject:     "VaultBank Transfer Verification Code",
		title:       "💸 Transfer Verification",
		description: pongo2.Must(pongo2.FromString(`You are initiating a transfer{% if amount %} of ${{ amount }}{% endif %} from your VaultBank account.`)),
		instruction: "To complete this transfer, please use the verification code below:",
		expiryHint:  "Enter this code to authorize the transfer.",
		warning:     "If you did not initiate this transfer, please contact our support team immediately.",
	},
	otp.PurposeCryptoWithdrawal: {
		subject:     "VaultBank Crypto Withdrawal Verification",
		title:       "🪙 Crypto Withdrawal Verification",
		description: pongo2.Must(pongo2.FromString(`You are withdrawing{% if currency %} {{ currency }}{% else %} cryptocurrency{% endif %}{% if amount %} (${{ amount }}){% endif %} from your VaultBank account.`)),
		instruction: "To complete this crypto withdrawal, please use the verification code below:",
		expiryHint:  "Enter this code to authorize the withdrawal.",
		warning:     "Crypto transactions are irreversible. If you did not initiate this withdrawal, please contact support immediately.",
	},
	otp.PurposeDomesticTransfer: {
		subject:     "VaultBank Domestic Wire Verification",
		title:       "🏦 Domestic Wire Transfer Verification",
		description: pongo2.Must(pongo2.FromString(`You are initiating a domestic wire transfer{% if amount %} of ${{ amount }}{% endif %}.`)),
		instruction: "To complete this wire transfer, please use the verification code below:",
		expiryHint:  "Enter this code to authorize the transfer.",
		warning:     "If you did not initiate this wire transfer, please contact our support team immediately.",
	},
	otp.PurposeInternationalTransfer: {
		subject:     "VaultBank International Wire Verification",
		title:       "🌍 International Wire Transfer Verification",
		description: pongo2.Must(pongo2.FromString(`You are initiating an international wire transfer{% if amount %} of ${{ amount }}{% endif %}.`)),
		instruction: "To complete this international transfer, please use the verification code below:",
		expiryHint:  "Enter this code to authorize the transfer.",
		warning:     "International transfers may incur additional fees. If you did not initiate this transfer, please contact support immediately.",
	},
	otp.PurposeWithdrawal: {
		subject:     "VaultBank Withdrawal Verification",
		title:       "💰 Withdrawal Verification",
		description: pongo2.Must(pongo2.FromString(`You are withdrawing{% if amount %} ${{ amount }}{% else %} funds{% endif %} from your VaultBank account.`)),
		instruction: "To complete this withdrawal, please use the verification code below:",
		expiryHint:  "Enter this code to authorize the withdrawal.",
		warning:     "If you did not initiate this withdrawal, please contact our support team immediately.",
	},
	otp.PurposeLinkAccount: {
		subject:     "VaultBank Account Link Verification",
		title:       "🔗 External Payment Account Link Request",
		description: pongo2.Must(pongo2.FromString(`{% if account_type %}Your account is being linked to <strong>{{ account_type|capfirst }}</strong>{% else %}A payment account is being linked to your VaultBank account{% endif %}{% if account_identifier %} ({{ account_identifier }}){% endif %}.`)),
		instruction: "If you initiated this request, please use the verification code below to complete the linking process:",
		expiryHint:  "Enter this code to complete the account linking.",
		warning:     "If you did not initiate this account linking, please contact our support team immediately.",
	},
}

var otpLayout = pongo2.Must(pongo2.FromString(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>VaultBank OTP</title>
  </head>
  <body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #0a0e14;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
      <tr>
        <td align="center" style="padding: 40px 20px;">
          <table role="presentation" style="width: 600px; max-width: 100%; background-color: #151c28; border-radius: 16px; border: 1px solid #1e293b;">
            <tr>
              <td style="padding: 40px 40px 20px 40px; text-align: center; border-bottom: 1px solid #1e293b;">
                <h1 style="margin: 0; color: #f8fafc; font-size: 24px;">VaultBank</h1>
                <p style="margin: 8px 0 0 0; color: #64748b; font-size: 14px;">Security Verification</p>
              </td>
            </tr>
            <tr>
              <td style="padding: 40px;">
                <h2 style="margin: 0 0 16px 0; color: #f8fafc; font-size: 20px;">{{ title }}</h2>
                <p style="margin: 0 0 20px 0; color: #cbd5e1; font-size: 16px;">{{ description|safe }}</p>
                <p style="margin: 0 0 28px 0; color: #cbd5e1; font-size: 16px;">{{ instruction }}</p>
                <div style="background-color: #0d1117; border: 1px solid #1e293b; border-radius: 12px; padding: 24px; text-align: center; font-size: 36px; font-weight: 700; letter-spacing: 8px; color: #f8fafc; font-family: 'Courier New', monospace;">{{ code }}</div>
                <p style="margin: 28px 0 16px 0; color: #94a3b8; font-size: 13px;">This code will expire in <strong>{{ minutes }} minutes</strong>. {{ expiry_hint }}</p>
                <div style="padding: 16px; background-color: #1e293b; border-left: 4px solid #f59e0b; border-radius: 10px; color: #fde68a; font-size: 13px;"><strong>Security tip:</strong> Never share this code with anyone. VaultBank staff will never ask for your verification code.</div>
                <div style="margin-top: 16px; padding: 16px; background-color: #1e293b; border-left: 4px solid #ef4444; border-radius: 10px; color: #fecaca; font-size: 13px;">{{ warning }}</div>
              </td>
            </tr>
            <tr>
              <td style="padding: 24px 40px; text-align: center; border-top: 1px solid #1e293b; background-color: #0d1117; color: #64748b; font-size: 12px;">
                This is an automated message from VaultBank. Please do not reply to this email.
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>`))

// RenderOTP builds the verification email for purpose. Unknown purposes
// fall back to the account link wording.
func RenderOTP(to, code string, purpose otp.Purpose, details otp.EmailDetails, ttl time.Duration) (Message, error) {
	content, ok := otpContents[purpose]
	if !ok {
		content = otpContents[otp.PurposeLinkAccount]
	}

	description, err := content.description.Execute(pongo2.Context{
		"amount":             details.Amount,
		"currency":           details.Currency,
		"account_type":       details.AccountType,
		"account_identifier": details.AccountIdentifier,
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render otp description: %w", err)
	}

	minutes := int(ttl.Minutes())
	if minutes < 1 {
		minutes = 1
	}

	body, err := otpLayout.Execute(pongo2.Context{
		"title":       content.title,
		"description": description,
		"instruction": content.instruction,
		"code":        code,
		"minutes":     minutes,
		"expiry_hint": content.expiryHint,
		"warning":     content.warning,
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render otp email: %w", err)
	}

	return Message{To: to, Subject: content.subject, HTMLBody: body}, nil
}

type amlContent struct {
	subject        string
	title          string
	headline       string
	description    *pongo2.Template
	ctaText        string
	ctaPath        string
	additionalInfo string
}

var amlContents = map[compliance.NotificationType]amlContent{
	compliance.TypeStatusUpdate: {
		subject:        "VaultBank AML Compliance Status Update",
		title:          "📋 Compliance Status Updated",
		headline:       "Your verification status has been updated",
		description:    pongo2.Must(pongo2.FromString(`Your {{ status_field|default:"compliance" }} verification has been updated to: <strong style="color: #22c55e;">{{ new_status|default:"Updated" }}</strong>`)),
		ctaText:        "View Compliance Dashboard",
		ctaPath:        "/dashboard/compliance",
		additionalInfo: "Continue to monitor your compliance dashboard for further updates on your verification progress.",
	},
	compliance.TypeVerificationComplete: {
		subject:        "✅ VaultBank AML Verification Complete",
		title:          "🎉 Verification Complete!",
		headline:       "All compliance requirements have been satisfied",
		description:    pongo2.Must(pongo2.FromString(`Congratulations! Your AML compliance verification has been successfully completed. All required documentation and verification steps have been approved.`)),
		ctaText:        "Access Your Account",
		ctaPath:        "/dashboard",
		additionalInfo: "Your account now has full access to all banking features including instant transfers.",
	},
	compliance.TypeTransfersUnlocked: {
		subject:        "🚀 VaultBank Transfers Now Available",
		title:          "💸 Instant Transfers Unlocked!",
		headline:       "Your transfers are now enabled",
		description:    pongo2.Must(pongo2.FromString(`Great news! With your AML compliance complete, you can now make instant transfers{% if transfer_amount %} up to ${{ transfer_amount }}{% endif %}. Our VaultCore™ system processes transfers within seconds.`)),
		ctaText:        "Make a Transfer",
		ctaPath:        "/dashboard/transfers",
		additionalInfo: "Transfers are processed instantly 24/7 with full security encryption.",
	},
	compliance.TypeActionRequired: {
		subject:        "⚠️ VaultBank: Action Required on Your Compliance",
		title:          "⚠️ Action Required",
		headline:       "Please complete your verification",
		description:    pongo2.Must(pongo2.FromString(`Your {{ status_field|default:"compliance verification" }} requires attention. Please review and complete the required steps to continue with your account verification.`)),
		ctaText:        "Complete Verification",
		ctaPath:        "/dashboard/compliance",
		additionalInfo: "Failure to complete verification may result in delays to your account access.",
	},
	compliance.TypeDeadlineReminder: {
		subject:        "⏰ VaultBank: Compliance Deadline Approaching",
		title:          "⏰ Deadline Reminder",
		headline:       "Your compliance deadline is approaching",
		description:    pongo2.Must(pongo2.FromString(`Your AML compliance verification deadline is {{ deadline_date|default:"approaching soon" }}. Please ensure all required documentation and deposits are submitted before the deadline.`)),
		ctaText:        "View Requirements",
		ctaPath:        "/dashboard/compliance",
		additionalInfo: "Contact support if you need assistance meeting your compliance requirements.",
	},
}

var amlFallback = amlContent{
	subject:        "VaultBank Compliance Notification",
	title:          "📋 Compliance Update",
	headline:       "Important update regarding your compliance",
	description:    pongo2.Must(pongo2.FromString(`There has been an update to your AML compliance status. Please review your compliance dashboard for details.`)),
	ctaText:        "View Dashboard",
	ctaPath:        "/dashboard/compliance",
	additionalInfo: "Contact support if you have any questions.",
}

var amlLayout = pongo2.Must(pongo2.FromString(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ subject }}</title>
  </head>
  <body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #0a0e14;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
      <tr>
        <td align="center" style="padding: 40px 20px;">
          <table role="presentation" style="width: 600px; max-width: 100%; background-color: #151c28; border-radius: 16px; border: 1px solid #1e293b;">
            <tr>
              <td style="padding: 32px 40px; text-align: center; border-bottom: 1px solid #1e293b;">
                <h1 style="margin: 0; color: #f8fafc; font-size: 24px;">VaultBank</h1>
                <p style="margin: 8px 0 0 0; color: #64748b; font-size: 14px;">AML Compliance</p>
              </td>
            </tr>
            <tr>
              <td style="padding: 40px;">
                <h2 style="margin: 0 0 8px 0; color: #f8fafc; font-size: 22px;">{{ title }}</h2>
                <p style="margin: 0 0 24px 0; color: #94a3b8; font-size: 15px;">{{ headline }}</p>
                <p style="margin: 0 0 16px 0; color: #cbd5e1; font-size: 16px;">Dear {{ user_name|default:"Valued Customer" }},</p>
                <p style="margin: 0 0 24px 0; color: #cbd5e1; font-size: 16px; line-height: 24px;">{{ description|safe }}</p>
                <p style="margin: 0 0 24px 0; text-align: center;">
                  <a href="{{ cta_url }}" style="display: inline-block; background: #2563eb; color: #ffffff; padding: 14px 28px; border-radius: 10px; text-decoration: none; font-weight: 600;">{{ cta_text }}</a>
                </p>
                <p style="margin: 0 0 16px 0; color: #94a3b8; font-size: 14px;">{{ additional_info }}</p>
                <p style="margin: 0; color: #64748b; font-size: 12px;">Case Reference: {{ case_id|default:"N/A" }}</p>
              </td>
            </tr>
            <tr>
              <td style="padding: 24px 40px; text-align: center; border-top: 1px solid #1e293b; background-color: #0d1117; color: #64748b; font-size: 12px;">
                This is an automated message from VaultBank Compliance. Please do not reply to this email.
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>`))

// RenderAML builds a compliance notification. baseURL prefixes the
// dashboard links.
func RenderAML(req compliance.NotificationRequest, baseURL string) (Message, error) {
	content, ok := amlContents[req.NotificationType]
	if !ok {
		content = amlFallback
	}

	statusField := strings.ReplaceAll(req.StatusField, "_", " ")
	description, err := content.description.Execute(pongo2.Context{
		"status_field":    statusField,
		"new_status":      req.NewStatus,
		"transfer_amount": req.TransferAmount,
		"deadline_date":   req.DeadlineDate,
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render aml description: %w", err)
	}

	body, err := amlLayout.Execute(pongo2.Context{
		"subject":         content.subject,
		"title":           content.title,
		"headline":        content.headline,
		"user_name":       req.UserName,
		"description":     description,
		"cta_text":        content.ctaText,
		"cta_url":         strings.TrimRight(baseURL, "/") + content.ctaPath,
		"additional_info": content.additionalInfo,
		"case_id":         req.CaseID,
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render aml email: %w", err)
	}

	return Message{To: req.Email, Subject: content.subject, HTMLBody: body}, nil
}
