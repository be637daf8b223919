package common

const (
	ContentTypeJson        = "application/json"
	ContentTypeProblemJson = "application/problem+json"

	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderRetryAfter    = "Retry-After"

	PathAuthLogin    = "/api/auth/login"
	PathAuthProfile  = "/api/auth/profile"
	PathAuthRegister = "/api/auth/register"

	PathBonitaLogin     = "/api/bonita/login"
	PathBonitaAuthLogin = "/api/BonitaAuth/login" // alias of PathBonitaLogin, used by existing frontends
	PathBonitaProcesses = "/api/bonita/processes"
	PathBonitaStatus    = "/api/bonita/status"

	PathProjects          = "/api/projects"
	PathProjectsId        = "/api/projects/{id}"
	PathProjectsResources = "/api/projects/{id}/resources"

	PathResourcesAccept = "/api/resources/{id}/accept"
	PathResourcesOffer  = "/api/resources/{id}/offer"

	PathMetrics   = "/metrics"
	PathReadiness = "/readiness"
)
