package admin

import (
	"fmt"

	"meramarket/models"
)

const policyVersion = "v1.0"

// Policies returns the published marketplace policies. Payment terms quote
// the current pricing.
func (s *Service) Policies() []models.PolicySection {
	pricing := s.billing.Pricing()
	updated := s.now().UTC().Format("2006-01-02")

	return []models.PolicySection{
		{
			ID:       "tos",
			Title:    "Terms of Use",
			Summary:  "The rules for buying and selling on Mera Local Market.",
			Content:  termsOfUse(),
			Audience: models.AudienceAll,
			Version:  policyVersion,
			Updated:  updated,
		},
		{
			ID:       "contact",
			Title:    "Contact Details Policy",
			Summary:  "Why phone numbers, emails and links are hidden until you hold a pass.",
			Content:  contactPolicy(pricing),
			Audience: models.AudienceAll,
			Version:  policyVersion,
			Updated:  updated,
		},
		{
			ID:       "payments",
			Title:    "Payments & Refunds",
			Summary:  "What each paid feature costs and how refunds work.",
			Content:  paymentPolicy(pricing),
			Audience: models.AudienceAll,
			Version:  policyVersion,
			Updated:  updated,
		},
		{
			ID:       "moderation",
			Title:    "Moderation Guidelines",
			Summary:  "How listings and requirements are reviewed.",
			Content:  moderationGuidelines(),
			Audience: models.AudienceAdmin,
			Version:  policyVersion,
			Updated:  updated,
		},
	}
}

// PoliciesFor returns the policies a user with role may read.
func (s *Service) PoliciesFor(role string) []models.PolicySection {
	var out []models.PolicySection
	for _, p := range s.Policies() {
		if p.Audience == models.AudienceAll || role == models.RoleAdmin {
			out = append(out, p)
		}
	}
	return out
}

func termsOfUse() string {
	return `By using Mera Local Market you agree to these terms.

1. Eligibility: You must be 18 or older to post listings.
2. Listings: Describe items honestly. Prohibited and counterfeit goods are removed.
3. Liability: The marketplace connects buyers and sellers; deals are between them.
4. Accounts: Suspended accounts cannot post, message or buy passes.`
}

func contactPolicy(p models.Pricing) string {
	return fmt.Sprintf(`Listings, requirements and messages may not contain phone numbers, email
addresses, links or long digit sequences. Submissions that do are rejected.

Seller phone numbers are shown to holders of a Contact Pass (Rs %d for %d days).
Sellers see the contacts of interested buyers with the interested-contacts
add-on (Rs %d per listing).`, p.ContactPassPrice, p.ContactPassDuration, p.ViewContactsAddonPrice)
}

func paymentPolicy(p models.Pricing) string {
	return fmt.Sprintf(`1. Publishing a listing costs Rs %d and keeps it live for %d days.
2. A Contact Pass costs Rs %d and lasts %d days; buying again extends it.
3. The interested-contacts add-on costs Rs %d per listing.
4. Refunds are issued by the marketplace team for failed or duplicate charges.`,
		p.ListingPrice, p.ListingDuration, p.ContactPassPrice, p.ContactPassDuration, p.ViewContactsAddonPrice)
}

func moderationGuidelines() string {
	return `- Approve listings that match their category and carry no contact details.
- Reject with a reason the seller can act on; a rejected listing can be republished.
- Rejected requirements are cancelled.
- Suspend accounts that repeatedly try to share contact details.`
}
