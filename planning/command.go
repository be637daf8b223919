package planning

// RegisterCmd provides data for the registration of a user.
type RegisterCmd struct {
	// Email, used to log in. Must not be registered already.
	Email string `json:"email" validate:"required,email,max=254"`
	// Full name of the user.
	Name string `json:"name" validate:"required,max=100"`
	// Name of the user's organization.
	Organization string `json:"organization" validate:"max=100"`
	// Determines if the user's organization offers resources.
	OfferingOrganization bool `json:"offeringOrganization"`
	// Password with at least 5 characters, including a digit.
	Password string `json:"password" validate:"required,max=72"`
}

// LoginCmd provides the credentials of a registered user.
type LoginCmd struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateProjectCmd provides data for the creation of a project.
type CreateProjectCmd struct {
	// Name of the project.
	Name string `json:"name" validate:"required,max=200"`
	// Date, the project starts.
	StartDate Date `json:"startDate" validate:"required"`
	// Date, the project ends. Must not be before the start date.
	EndDate Date `json:"endDate" validate:"required"`
	// Names of the needed resources. An absent list is treated as empty.
	Resources []string `json:"resources" validate:"max=100,dive,required,max=100"`
}

// OfferResourceCmd provides data for offering a pending resource.
type OfferResourceCmd struct {
	// Resource ID.
	Id int32 `json:"-"`

	// Email of the offering user.
	Email string `json:"-"`
	// Determines if the offering user's organization is allowed to offer resources.
	OfferingOrganization bool `json:"-"`
}

// BonitaLoginCmd provides the credentials of a Bonita user.
type BonitaLoginCmd struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
