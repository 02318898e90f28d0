package normalize

import "strings"

// Category is a (name, optional parent name) pair assigned to a posting.
type Category struct {
	Name   string
	Parent string
}

// OtherCategory catches titles no rule matches.
const OtherCategory = "Other"

type categoryRule struct {
	keyword string
	name    string
	parent  string
}

// Ordered most specific first: the first keyword found as a substring of the
// normalized title wins. Keywords are matched against normalized titles, so
// they are lower case and free of seniority qualifiers.
var categoryRules = []categoryRule{
	{"machine learning", "Machine Learning", "Data & Analytics"},
	{"ml engineer", "Machine Learning", "Data & Analytics"},
	{"data scientist", "Data Science", "Data & Analytics"},
	{"data science", "Data Science", "Data & Analytics"},
	{"data engineer", "Data Engineering", "Data & Analytics"},
	{"data analyst", "Data Analytics", "Data & Analytics"},
	{"analytics", "Data Analytics", "Data & Analytics"},
	{"site reliability", "DevOps & SRE", "Engineering"},
	{"sre", "DevOps & SRE", "Engineering"},
	{"devops", "DevOps & SRE", "Engineering"},
	{"platform engineer", "DevOps & SRE", "Engineering"},
	{"security", "Security", "Engineering"},
	{"frontend", "Frontend Engineering", "Engineering"},
	{"front end", "Frontend Engineering", "Engineering"},
	{"front-end", "Frontend Engineering", "Engineering"},
	{"backend", "Backend Engineering", "Engineering"},
	{"back end", "Backend Engineering", "Engineering"},
	{"back-end", "Backend Engineering", "Engineering"},
	{"full stack", "Full Stack Engineering", "Engineering"},
	{"fullstack", "Full Stack Engineering", "Engineering"},
	{"full-stack", "Full Stack Engineering", "Engineering"},
	{"android", "Mobile Engineering", "Engineering"},
	{"ios", "Mobile Engineering", "Engineering"},
	{"mobile", "Mobile Engineering", "Engineering"},
	{"qa engineer", "Quality Assurance", "Engineering"},
	{"quality assurance", "Quality Assurance", "Engineering"},
	{"test engineer", "Quality Assurance", "Engineering"},
	{"engineer", "Engineering", ""},
	{"engineering", "Engineering", ""},
	{"developer", "Engineering", ""},
	{"software", "Engineering", ""},
	{"programmer", "Engineering", ""},
	{"architect", "Engineering", ""},
	{"product manager", "Product", ""},
	{"product owner", "Product", ""},
	{"ux", "Design", ""},
	{"ui designer", "Design", ""},
	{"designer", "Design", ""},
	{"design", "Design", ""},
	{"marketing", "Marketing", ""},
	{"account executive", "Sales", ""},
	{"sales", "Sales", ""},
	{"business development", "Sales", ""},
	{"customer success", "Customer Support", ""},
	{"customer support", "Customer Support", ""},
	{"support specialist", "Customer Support", ""},
	{"recruiter", "Human Resources", ""},
	{"talent", "Human Resources", ""},
	{"human resources", "Human Resources", ""},
	{"people operations", "Human Resources", ""},
	{"accountant", "Finance", ""},
	{"accounting", "Finance", ""},
	{"finance", "Finance", ""},
	{"financial analyst", "Finance", ""},
	{"counsel", "Legal", ""},
	{"legal", "Legal", ""},
	{"paralegal", "Legal", ""},
	{"project manager", "Operations", ""},
	{"program manager", "Operations", ""},
	{"operations", "Operations", ""},
	{"nurse", "Healthcare", ""},
	{"physician", "Healthcare", ""},
	{"medical", "Healthcare", ""},
	{"clinical", "Healthcare", ""},
	{"instructor", "Education", ""},
	{"tutor", "Education", ""},
	{"curriculum", "Education", ""},
}

// CategoryFor maps a normalized title to a catalog category. Unmatched titles
// fall through to OtherCategory so every posting carries a category.
func CategoryFor(normalizedTitle string) Category {
	for _, rule := range categoryRules {
		if containsWordish(normalizedTitle, rule.keyword) {
			return Category{Name: rule.name, Parent: rule.parent}
		}
	}
	return Category{Name: OtherCategory}
}

// containsWordish reports whether keyword appears in title on token
// boundaries, so "ios" does not match "bios" and "sre" does not match
// "interested".
func containsWordish(title, keyword string) bool {
	for rest, offset := title, 0; ; {
		idx := strings.Index(rest, keyword)
		if idx < 0 {
			return false
		}
		abs := offset + idx
		end := abs + len(keyword)
		leftOK := abs == 0 || !isWordByte(title[abs-1])
		rightOK := end == len(title) || !isWordByte(title[end])
		if leftOK && rightOK {
			return true
		}
		rest = title[abs+1:]
		offset = abs + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
