package content

// Field is a professional field with its associated skill set.
type Field struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

// catalog is the static list of supported fields. Order matters: skill
// ranking ties are broken by position in this catalog.
var catalog = []Field{
	{
		ID:          "software-engineering",
		Name:        "Software Engineering",
		Description: "Designing, building, and maintaining software systems",
		Skills: []string{
			"problem-solving",
			"programming",
			"system-design",
			"debugging",
			"collaboration",
			"testing",
		},
	},
	{
		ID:          "data-science",
		Name:        "Data Science",
		Description: "Extracting insight and predictions from data",
		Skills: []string{
			"statistics",
			"programming",
			"data-visualization",
			"machine-learning",
			"communication",
			"problem-solving",
		},
	},
	{
		ID:          "product-design",
		Name:        "Product Design",
		Description: "Designing usable and desirable digital products",
		Skills: []string{
			"user-research",
			"visual-design",
			"prototyping",
			"communication",
			"empathy",
			"collaboration",
		},
	},
	{
		ID:          "product-management",
		Name:        "Product Management",
		Description: "Guiding products from idea to launch",
		Skills: []string{
			"prioritization",
			"communication",
			"data-analysis",
			"strategy",
			"stakeholder-management",
			"empathy",
		},
	},
	{
		ID:          "marketing",
		Name:        "Marketing",
		Description: "Growing audiences and driving demand",
		Skills: []string{
			"copywriting",
			"data-analysis",
			"creativity",
			"communication",
			"strategy",
			"social-media",
		},
	},
	{
		ID:          "devops",
		Name:        "DevOps & Infrastructure",
		Description: "Operating reliable systems and delivery pipelines",
		Skills: []string{
			"automation",
			"system-design",
			"debugging",
			"monitoring",
			"scripting",
			"collaboration",
		},
	},
}

// skillOrder maps each known skill to its first position in the catalog.
var skillOrder = buildSkillOrder()

func buildSkillOrder() map[string]int {
	order := make(map[string]int)
	pos := 0
	for _, f := range catalog {
		for _, s := range f.Skills {
			if _, seen := order[s]; !seen {
				order[s] = pos
				pos++
			}
		}
	}
	return order
}

// Fields returns all catalog fields.
func Fields() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

// FieldByID returns the field with the given ID, or false when unknown.
func FieldByID(id string) (Field, bool) {
	for _, f := range catalog {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Skills returns the deduplicated list of all catalog skills in catalog order.
func Skills() []string {
	out := make([]string, 0, len(skillOrder))
	seen := make(map[string]bool)
	for _, f := range catalog {
		for _, s := range f.Skills {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// KnownSkill reports whether the skill appears anywhere in the catalog.
func KnownSkill(skill string) bool {
	_, ok := skillOrder[skill]
	return ok
}

// SkillOrder returns the catalog position used for ranking tie-breaks.
// Unknown skills sort last.
func SkillOrder(skill string) int {
	if pos, ok := skillOrder[skill]; ok {
		return pos
	}
	return len(skillOrder)
}
