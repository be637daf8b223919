package planning

import (
	"fmt"
	"time"
)

func NewDate(v string) (Date, error) {
	t, err := time.Parse(time.DateOnly, v)
	return Date(t), err
}

// Date is a calendar date without time, encoded as "YYYY-MM-DD".
type Date time.Time

func (d Date) Before(u Date) bool {
	return time.Time(d).Before(time.Time(u))
}

func (d Date) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

func (d Date) String() string {
	return time.Time(d).Format(time.DateOnly)
}

func (d Date) Time() time.Time {
	return time.Time(d)
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) != 12 {
		return fmt.Errorf("invalid date data %s", s)
	}

	s = s[1 : len(s)-1]
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("failed to parse date %s", s)
	}

	*d = Date(t)
	return nil
}

// User is a registered member of an organization.
type User struct {
	Id int32 `json:"id"`

	CreatedAt time.Time `json:"createdAt"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	// Name of the organization, the user belongs to.
	Organization string `json:"organization"`
	// Determines if the user's organization offers resources to projects.
	OfferingOrganization bool `json:"offeringOrganization"`

	PasswordHash string `json:"-"`
}

type Project struct {
	Id int32 `json:"id"`

	// ID of the Bonita case, started for the project, or empty if no case has been started yet.
	CaseId    string     `json:"caseId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	EndDate   Date       `json:"endDate"`
	Name      string     `json:"name"`
	Resources []Resource `json:"resources,omitempty"`
	StartDate Date       `json:"startDate"`
}

// ResourceNames returns the names of the project's resources.
func (p Project) ResourceNames() []string {
	names := make([]string, len(p.Resources))
	for i, resource := range p.Resources {
		names[i] = resource.Name
	}
	return names
}

// Resource is something a project needs, like material or work, that can be offered by an organization.
type Resource struct {
	Id        int32 `json:"id"`
	ProjectId int32 `json:"projectId"`

	// Email of the user, who offered the resource.
	ContactEmail string        `json:"contactEmail,omitempty"`
	Name         string        `json:"name"`
	State        ResourceState `json:"state"`
}

// ResourceState describes the lifecycle of a resource:
//
//   - [ResourcePending]: needed, but not offered yet
//   - [ResourceOffer]: offered by an organization
//   - [ResourceAccepted]: offer accepted by the project
type ResourceState int

const (
	ResourcePending ResourceState = iota + 1
	ResourceOffer
	ResourceAccepted
)

func MapResourceState(s string) ResourceState {
	switch s {
	case "pending":
		return ResourcePending
	case "offer":
		return ResourceOffer
	case "accepted":
		return ResourceAccepted
	default:
		return 0
	}
}

func (v ResourceState) MarshalJSON() ([]byte, error) {
	s := v.String()
	if s == "" {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", s)), nil
}

func (v ResourceState) String() string {
	switch v {
	case ResourcePending:
		return "pending"
	case ResourceOffer:
		return "offer"
	case ResourceAccepted:
		return "accepted"
	default:
		return ""
	}
}

func (v *ResourceState) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) > 2 {
		s = s[1 : len(s)-1]
		*v = MapResourceState(s)
	}
	if *v == 0 {
		return fmt.Errorf("invalid resource state data %s", s)
	}
	return nil
}
