package domain

// TicketType classifies a ticket.
type TicketType string

const (
	TicketTypeIncident       TicketType = "Incident"
	TicketTypeServiceRequest TicketType = "Service Request"
)

// Valid reports whether the type is known.
func (t TicketType) Valid() bool {
	return t == TicketTypeIncident || t == TicketTypeServiceRequest
}

const (
	DefaultCategory    = "Other"
	DefaultSubcategory = "General"
)

// CategoryCatalog maps each category to its subcategories.
var CategoryCatalog = map[string][]string{
	"Hardware": {"Desktop", "Laptop", "Printer", "Monitor", "Peripherals"},
	"Software": {"OS", "Office", "Browser", "Lob App", "Licensing"},
	"Network":  {"VPN", "WiFi", "LAN", "DNS", "Firewall"},
	"Access":   {"Account", "Permissions", "MFA", "Password Reset"},
	"Other":    {"General"},
}

// ValidClassification reports whether subcategory belongs to category.
func ValidClassification(category, subcategory string) bool {
	subs, ok := CategoryCatalog[category]
	if !ok {
		return false
	}
	for _, s := range subs {
		if s == subcategory {
			return true
		}
	}
	return false
}
