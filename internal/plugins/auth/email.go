package auth

import (
	"fmt"
	"html"
)

// confirmationEmailBody renders the HTML body of the account confirmation
// email. Inline styles only -- most mail clients strip <style> blocks.
func confirmationEmailBody(name, link string) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + html.EscapeString(name)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f6f8;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:560px;margin:0 auto;padding:32px 16px;">
    <div style="background:#ffffff;border-radius:8px;padding:32px;">
      <h1 style="color:#1a3c6e;font-size:22px;margin:0 0 16px;">Finacco Solutions</h1>
      <p style="color:#333;font-size:15px;line-height:1.6;">%s,</p>
      <p style="color:#333;font-size:15px;line-height:1.6;">
        Thanks for creating an account. Please confirm your email address to
        finish setting up your account.
      </p>
      <p style="text-align:center;margin:28px 0;">
        <a href="%s" style="background:#1a73e8;color:#ffffff;text-decoration:none;padding:12px 28px;border-radius:6px;font-size:15px;display:inline-block;">Confirm email address</a>
      </p>
      <p style="color:#777;font-size:13px;line-height:1.6;">
        This link expires in 24 hours. If you did not create an account, you
        can safely ignore this email.
      </p>
    </div>
    <p style="color:#999;font-size:12px;text-align:center;margin-top:16px;">
      Finacco Solutions &middot; Mecca Tower, Court Road, Manjeri
    </p>
  </div>
</body>
</html>`, greeting, link)
}

// resetEmailBody renders the HTML body of the password reset email.
func resetEmailBody(name, link string) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + html.EscapeString(name)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f6f8;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:560px;margin:0 auto;padding:32px 16px;">
    <div style="background:#ffffff;border-radius:8px;padding:32px;">
      <h1 style="color:#1a3c6e;font-size:22px;margin:0 0 16px;">Finacco Solutions</h1>
      <p style="color:#333;font-size:15px;line-height:1.6;">%s,</p>
      <p style="color:#333;font-size:15px;line-height:1.6;">
        We received a request to reset the password for your account. Click
        the button below to choose a new password.
      </p>
      <p style="text-align:center;margin:28px 0;">
        <a href="%s" style="background:#1a73e8;color:#ffffff;text-decoration:none;padding:12px 28px;border-radius:6px;font-size:15px;display:inline-block;">Reset password</a>
      </p>
      <p style="color:#777;font-size:13px;line-height:1.6;">
        This link expires in 24 hours. If you did not request a reset, your
        password is unchanged and you can ignore this email.
      </p>
    </div>
    <p style="color:#999;font-size:12px;text-align:center;margin-top:16px;">
      Finacco Solutions &middot; Mecca Tower, Court Road, Manjeri
    </p>
  </div>
</body>
</html>`, greeting, link)
}
