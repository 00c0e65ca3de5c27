package assistant

import "strings"

// Canned answers for questions about the company itself. These never hit the
// LLM: they are exact, always available, and don't burn the user's quota.

const aboutResponse = `
**About Finacco Solutions**

Finacco Solutions is a comprehensive financial and technology services provider offering:

* Financial Services:
  - GST Registration and Returns
  - Income Tax Filing
  - Business Consultancy
  - Company & LLP Services
  - TDS/TCS Services
  - Bookkeeping Services

* Technology Solutions:
  - Tally Prime Solutions
  - Data Import Tools
  - Financial Statement Preparation
  - Bank Reconciliation Tools
  - Custom Software Development
  - Web Development Services

**Contact Information:**
* Phone: +91 8590000761
* Email: contact@finaccosolutions.com
* Location: Mecca Tower, 2nd Floor, Court Road, Near Sree Krishna Theatre, Manjeri, Kerala-676521

**Business Hours:**
* Monday - Saturday: 9:30 AM - 6:00 PM
* Sunday: Closed

Visit our service platforms:
* [Finacco Advisory](https://advisory.finaccosolutions.com) - For all financial advisory services
* [Finacco Connect](https://connect.finaccosolutions.com) - For business utility software and Tally solutions
`

const contactResponse = `
**Contact Information for Finacco Solutions:**

* Phone: +91 8590000761
* Email: contact@finaccosolutions.com
* Address: Mecca Tower, 2nd Floor, Court Road, Near Sree Krishna Theatre, Manjeri, Kerala-676521

**Office Hours:**
* Monday - Saturday: 9:30 AM - 6:00 PM
* Sunday: Closed

Feel free to reach out to us through WhatsApp or email for quick responses.
`

const connectResponse = `
**Finacco Connect Services:**

Visit [Finacco Connect](https://connect.finaccosolutions.com) for:
* Tally Prime Solutions
  - Sales and Implementation
  - Training and Support
  - Customization Services
* Data Import Tools
  - Bank Statement Import
  - Tally Data Migration
  - Excel to Tally Integration
* Financial Statement Preparation
* Bank Reconciliation Tools
* Business Utility Software

For detailed information or support:
* Phone: +91 8590000761
* Email: contact@finaccosolutions.com
`

const advisoryResponse = `
**Finacco Advisory Services:**

Visit [Finacco Advisory](https://advisory.finaccosolutions.com) for:

* GST Services:
  - Registration
  - Monthly/Quarterly Returns
  - Annual Returns
  - GST Audit Support
  - E-way Bill Services

* Income Tax Services:
  - Individual Tax Filing
  - Business Tax Returns
  - Tax Planning
  - TDS Returns
  - Form 16/16A Generation

* Business Services:
  - Company Registration
  - LLP Formation
  - Business Consultancy
  - Bookkeeping Services
  - Financial Advisory

Contact us for professional assistance:
* Phone: +91 8590000761
* Email: contact@finaccosolutions.com
`

// cannedResponse returns the fixed answer for company questions, or empty
// when the query should go to the LLM. Match order matters: the about check
// runs first so "about finacco solutions contact" gets the full overview.
func cannedResponse(query string) string {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "about finacco"),
		strings.Contains(q, "company information"),
		strings.Contains(q, "finacco solutions"):
		return aboutResponse
	case strings.Contains(q, "contact"),
		strings.Contains(q, "phone"),
		strings.Contains(q, "email"),
		strings.Contains(q, "address"):
		return contactResponse
	case strings.Contains(q, "tally"),
		strings.Contains(q, "import"),
		strings.Contains(q, "connect"),
		strings.Contains(q, "utility software"):
		return connectResponse
	case strings.Contains(q, "advisory"),
		strings.Contains(q, "financial services"):
		return advisoryResponse
	}
	return ""
}
