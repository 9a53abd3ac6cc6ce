package domain

import "strings"

// Category groups services for the spending breakdown.
type Category string

const (
	CategoryEntertainment Category = "Entertainment"
	CategoryProductivity  Category = "Productivity"
	CategoryDevelopment   Category = "Development"
	CategoryGaming        Category = "Gaming"
	CategoryLearning      Category = "Learning"
	CategoryOther         Category = "Other"
)

// Checked in order; the first category with a matching keyword wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryEntertainment, []string{"netflix", "spotify", "hulu", "disney", "hbo", "max", "youtube", "twitch", "apple music", "amazon prime", "peacock", "paramount"}},
	{CategoryProductivity, []string{"adobe", "figma", "notion", "slack", "zoom", "microsoft", "office", "dropbox", "google", "evernote", "todoist", "asana", "trello", "linear", "canva"}},
	{CategoryDevelopment, []string{"github", "gitlab", "vercel", "netlify", "aws", "azure", "digitalocean", "heroku", "docker", "jetbrains", "openai", "chatgpt", "copilot", "cursor"}},
	{CategoryGaming, []string{"xbox", "playstation", "nintendo", "steam", "ea play", "ubisoft", "game pass", "humble"}},
	{CategoryLearning, []string{"medium", "substack", "nyt", "times", "journal", "coursera", "udemy", "skillshare", "masterclass", "linkedin learning"}},
}

// Categorize assigns a category from the service name.
func Categorize(serviceName string) Category {
	name := strings.ToLower(serviceName)
	for _, group := range categoryKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(name, keyword) {
				return group.category
			}
		}
	}
	return CategoryOther
}
