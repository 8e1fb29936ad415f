package skills

// Term is one curated skill with its display form and category.
type Term struct {
	Name          string
	Category      string
	CaseSensitive bool
	Aliases       []string
}

const (
	CategoryProgramming  = "Programming"
	CategoryFrameworks   = "Frameworks"
	CategoryCloud        = "Cloud"
	CategoryDevOps       = "DevOps"
	CategoryDatabases    = "Databases"
	CategoryProductivity = "Productivity"
	CategoryFieldOps     = "Field Operations"
	CategoryPlatforms    = "Operating Systems"
	CategoryNetworking   = "Networking"
	CategoryGeneral      = "General"
)

// DefaultVocabulary lists the tools and technologies recognised as discrete skills.
// Common English words ("Word", "Go", "Access") only match with their capitalisation.
var DefaultVocabulary = []Term{
	{Name: "Python", Category: CategoryProgramming},
	{Name: "Java", Category: CategoryProgramming},
	{Name: "JavaScript", Category: CategoryProgramming},
	{Name: "TypeScript", Category: CategoryProgramming},
	{Name: "C++", Category: CategoryProgramming},
	{Name: "C#", Category: CategoryProgramming},
	{Name: "Ruby", Category: CategoryProgramming},
	{Name: "PHP", Category: CategoryProgramming},
	{Name: "Go", Category: CategoryProgramming, CaseSensitive: true, Aliases: []string{"Golang"}},
	{Name: "Rust", Category: CategoryProgramming, CaseSensitive: true},
	{Name: "Swift", Category: CategoryProgramming, CaseSensitive: true},
	{Name: "Kotlin", Category: CategoryProgramming},
	{Name: "Scala", Category: CategoryProgramming},
	{Name: "SQL", Category: CategoryDatabases},
	{Name: "React", Category: CategoryFrameworks},
	{Name: "Angular", Category: CategoryFrameworks},
	{Name: "Vue", Category: CategoryFrameworks},
	{Name: "Django", Category: CategoryFrameworks},
	{Name: "Flask", Category: CategoryFrameworks},
	{Name: "Spring", Category: CategoryFrameworks, CaseSensitive: true},
	{Name: "Node.js", Category: CategoryFrameworks, Aliases: []string{"NodeJS"}},
	{Name: "AWS", Category: CategoryCloud, Aliases: []string{"Amazon Web Services"}},
	{Name: "Azure", Category: CategoryCloud},
	{Name: "Google Cloud", Category: CategoryCloud, Aliases: []string{"Google Cloud Platform", "GCP"}},
	{Name: "Oracle Cloud", Category: CategoryCloud},
	{Name: "Docker", Category: CategoryDevOps},
	{Name: "Kubernetes", Category: CategoryDevOps, Aliases: []string{"K8s"}},
	{Name: "Jenkins", Category: CategoryDevOps},
	{Name: "GitLab", Category: CategoryDevOps},
	{Name: "GitHub", Category: CategoryDevOps},
	{Name: "Git", Category: CategoryDevOps},
	{Name: "Terraform", Category: CategoryDevOps},
	{Name: "Ansible", Category: CategoryDevOps},
	{Name: "CI/CD", Category: CategoryDevOps},
	{Name: "MySQL", Category: CategoryDatabases},
	{Name: "PostgreSQL", Category: CategoryDatabases, Aliases: []string{"Postgres"}},
	{Name: "MongoDB", Category: CategoryDatabases},
	{Name: "Redis", Category: CategoryDatabases},
	{Name: "SQL Server", Category: CategoryDatabases},
	{Name: "Oracle", Category: CategoryDatabases, CaseSensitive: true},
	{Name: "Excel", Category: CategoryProductivity, CaseSensitive: true},
	{Name: "Word", Category: CategoryProductivity, CaseSensitive: true},
	{Name: "PowerPoint", Category: CategoryProductivity},
	{Name: "Outlook", Category: CategoryProductivity, CaseSensitive: true},
	{Name: "Access", Category: CategoryProductivity, CaseSensitive: true},
	{Name: "Microsoft Office", Category: CategoryProductivity, Aliases: []string{"MS Office"}},
	{Name: "QuickBooks", Category: CategoryProductivity},
	{Name: "UPS WorldShip", Category: CategoryProductivity, Aliases: []string{"WorldShip"}},
	{Name: "OTDR", Category: CategoryFieldOps},
	{Name: "CDD", Category: CategoryFieldOps},
	{Name: "GIS", Category: CategoryFieldOps},
	{Name: "Bluebeam", Category: CategoryFieldOps},
	{Name: "AutoCAD", Category: CategoryFieldOps},
	{Name: "Circuit Vision", Category: CategoryFieldOps},
	{Name: "Windows", Category: CategoryPlatforms, CaseSensitive: true},
	{Name: "Linux", Category: CategoryPlatforms},
	{Name: "Unix", Category: CategoryPlatforms},
	{Name: "macOS", Category: CategoryPlatforms},
	{Name: "Ubuntu", Category: CategoryPlatforms},
	{Name: "TCP/IP", Category: CategoryNetworking},
	{Name: "Cisco", Category: CategoryNetworking},
}

// categoryCaps bounds the years reported for fast-moving categories.
var categoryCaps = map[string]int{
	CategoryCloud:  15,
	CategoryDevOps: 12,
}

// categoryHints route free-text skill lines to a category when no curated term matched.
var categoryHints = []struct {
	Category string
	Words    []string
}{
	{CategoryNetworking, []string{"network", "fiber", "splicing", "cabling", "connectivity", "router", "switch"}},
	{CategoryCloud, []string{"cloud", "serverless"}},
	{CategoryDevOps, []string{"devops", "pipeline", "deployment", "automation"}},
	{CategoryDatabases, []string{"database", "data modeling", "etl"}},
	{CategoryProductivity, []string{"documentation", "reporting", "spreadsheet", "presentation", "records"}},
}

// categoryStatements is the single statement written for a category whose
// lines matched no tool or list rule.
var categoryStatements = map[string]string{
	CategoryProgramming:  "Software development across multiple programming languages",
	CategoryFrameworks:   "Application development with modern frameworks",
	CategoryCloud:        "Experienced with cloud platforms and services",
	CategoryDevOps:       "Skilled in build automation and deployment practices",
	CategoryDatabases:    "Skilled in database design and data management",
	CategoryProductivity: "Proficient with productivity tools for reporting and presentations",
	CategoryFieldOps:     "Field operations tooling and site documentation",
	CategoryPlatforms:    "Administration of desktop and server operating systems",
	CategoryNetworking:   "Hands-on expertise in network and fiber infrastructure",
	CategoryGeneral:      "Strong professional and interpersonal skills",
}
