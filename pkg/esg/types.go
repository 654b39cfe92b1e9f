// Package esg defines the domain types for ESG metric tracking and the
// schema validation used by both the HTTP API and the CSV importer.
package esg

// Category classifies a metric on the top-level ESG axis.
type Category string

const (
	CategoryEnvironmental Category = "environmental"
	CategorySocial        Category = "social"
	CategoryGovernance    Category = "governance"
)

// Categories lists the closed set of valid categories.
var Categories = []Category{CategoryEnvironmental, CategorySocial, CategoryGovernance}

// Metric is one ESG measurement entry. The ID is assigned by the store at
// creation time and is immutable afterwards.
type Metric struct {
	ID           string   `json:"id"`
	Category     Category `json:"category"`
	Name         string   `json:"metric"`
	Value        float64  `json:"value"`
	Unit         string   `json:"unit"`
	Period       string   `json:"period"`
	Source       string   `json:"source"`
	ReportedBy   string   `json:"reportedBy"`
	DateReported string   `json:"dateReported"`
	Verified     bool     `json:"verified"`
	Notes        string   `json:"notes"`
}

// Role describes what a user does with the system. Cosmetic only: there is no
// server-side authorization tied to it.
type Role string

const (
	RoleESG        Role = "esg"
	RoleMarketing  Role = "marketing"
	RoleLeadership Role = "leadership"
	RoleAdmin      Role = "admin"
)

// User is a read-only directory entry, seeded at store initialization.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Department string `json:"department"`
}
