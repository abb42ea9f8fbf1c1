package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department enum — the fixed civic classification taxonomy
type Department string

const (
	PWD         Department = "pwd"
	Water       Department = "water"
	SWM         Department = "swm"
	Traffic     Department = "traffic"
	Health      Department = "health"
	Environment Department = "environment"
	Electricity Department = "electricity"
	Disaster    Department = "disaster"
)

// Priority enum
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// DepartmentInfo carries the display name and default priority used when the
// classifier omits one.
type DepartmentInfo struct {
	Name            string
	DefaultPriority Priority
}

var Departments = map[Department]DepartmentInfo{
	PWD:         {Name: "Public Works Department", DefaultPriority: PriorityHigh},
	Water:       {Name: "Water Supply & Sewage", DefaultPriority: PriorityHigh},
	SWM:         {Name: "Solid Waste Management", DefaultPriority: PriorityMedium},
	Traffic:     {Name: "Traffic Police / Transport", DefaultPriority: PriorityHigh},
	Health:      {Name: "Health & Sanitation", DefaultPriority: PriorityHigh},
	Environment: {Name: "Environment & Parks", DefaultPriority: PriorityMedium},
	Electricity: {Name: "Electricity Department", DefaultPriority: PriorityHigh},
	Disaster:    {Name: "Disaster Management", DefaultPriority: PriorityCritical},
}

// IsValidDepartment reports whether s is one of the eight known departments.
func IsValidDepartment(s string) bool {
	_, ok := Departments[Department(s)]
	return ok
}

// IssueStatus enum
type IssueStatus string

const (
	StatusWorking    IssueStatus = "working"
	StatusAssign     IssueStatus = "assign"
	StatusAtProgress IssueStatus = "at progress"
	StatusResolved   IssueStatus = "resolved"
	StatusEscalated  IssueStatus = "escalated"

	// StatusDuplicateReport only ever appears in updateHistory entries,
	// never as an issue's own status.
	StatusDuplicateReport IssueStatus = "duplicate_report"
)

// legalTransitions is the issue lifecycle: working -> assign -> "at progress"
// -> resolved, with escalated reachable from any non-resolved state.
// resolved and escalated are terminal; a resolved issue never reopens, a new
// report in the same place founds a fresh issue instead.
var legalTransitions = map[IssueStatus][]IssueStatus{
	StatusWorking:    {StatusAssign, StatusEscalated},
	StatusAssign:     {StatusAtProgress, StatusEscalated},
	StatusAtProgress: {StatusResolved, StatusEscalated},
	StatusResolved:   {},
	StatusEscalated:  {},
}

// CanTransition reports whether an issue may move from one status to another.
func CanTransition(from, to IssueStatus) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateEntry is one append-only audit record in an issue's history.
type UpdateEntry struct {
	Status    IssueStatus         `bson:"status" json:"status"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	UpdatedBy string              `bson:"updatedBy" json:"updatedBy"`
	PostID    *primitive.ObjectID `bson:"postId,omitempty" json:"postId,omitempty"`
}

// AssignedPersonnel identifies who an issue was assigned to.
type AssignedPersonnel struct {
	Name       string `bson:"name" json:"name"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`
	Contact    string `bson:"contact,omitempty" json:"contact,omitempty"`
}

// Issue is the deduplicated record for one real-world civic problem,
// possibly backed by several posts. Summary, priority and geoData come from
// the founding post and are never overwritten by merges.
type Issue struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Department        Department           `bson:"department" json:"department"`
	Category          string               `bson:"category" json:"category"`
	Priority          Priority             `bson:"priority" json:"priority"`
	Summary           string               `bson:"summary" json:"summary"`
	Status            IssueStatus          `bson:"status" json:"status"`
	GeoData           *GeoData             `bson:"geoData,omitempty" json:"geoData,omitempty"`
	RelatedPosts      []primitive.ObjectID `bson:"relatedPosts" json:"relatedPosts"`
	ReportCount       int                  `bson:"reportCount" json:"reportCount"`
	UpdateHistory     []UpdateEntry        `bson:"updateHistory" json:"updateHistory"`
	ReportedAt        time.Time            `bson:"reportedAt" json:"reportedAt"`
	LastReported      time.Time            `bson:"lastReported" json:"lastReported"`
	AssignedPersonnel *AssignedPersonnel   `bson:"assignedPersonnel,omitempty" json:"assignedPersonnel,omitempty"`
	AssignedAt        *time.Time           `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	ETA               *time.Time           `bson:"eta,omitempty" json:"eta,omitempty"`
}
