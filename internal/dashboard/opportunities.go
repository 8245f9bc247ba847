package dashboard

// Tournament is an upcoming competition
type Tournament struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// Scholarship is a funding programme
type Scholarship struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Opportunities are the tournaments and scholarships listed for a sport
type Opportunities struct {
	Tournaments  []Tournament  `json:"tournaments"`
	Scholarships []Scholarship `json:"scholarships"`
}

var opportunities = map[string]Opportunities{
	"table_tennis": {
		Tournaments: []Tournament{
			{Name: "Visakhapatnam District Open", Date: "Nov 15, 2025", Location: "Swarna Bharathi Indoor Stadium"},
			{Name: "State Ranking Championship", Date: "Dec 5, 2025", Location: "Vijayawada"},
		},
		Scholarships: []Scholarship{
			{Name: "SAAP Talent Hunt Scholarship", Description: "For promising state-level players under 18.", Link: "#"},
			{Name: "Petroleum Sports Promotion Board (PSPB)", Description: "For national-level players.", Link: "#"},
		},
	},
	"football": {
		Tournaments: []Tournament{
			{Name: "City League Division A", Date: "Nov 22, 2025", Location: "Port Stadium"},
			{Name: "Andhra Premier League U-19 Trials", Date: "Dec 10, 2025", Location: "Guntur"},
		},
		Scholarships: []Scholarship{
			{Name: "Reliance Foundation Youth Champs", Description: "Nationwide scouting program for young talent.", Link: "#"},
		},
	},
	"cricket": {
		Tournaments: []Tournament{
			{Name: "VDCA League Selections", Date: "Nov 1, 2025", Location: "ACA-VDCA Cricket Stadium"},
		},
		Scholarships: []Scholarship{
			{Name: "Andhra Cricket Association (ACA) Stipend", Description: "For players in state-level camps.", Link: "#"},
		},
	},
}

// OpportunitiesFor returns the listings for sport; unknown sports get empty lists
func OpportunitiesFor(sport string) Opportunities {
	if o, ok := opportunities[sport]; ok {
		return o
	}
	return Opportunities{Tournaments: []Tournament{}, Scholarships: []Scholarship{}}
}
