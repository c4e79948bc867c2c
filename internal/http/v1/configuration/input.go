package configuration

// ClientInput selects a client by code.
type ClientInput struct {
	Code string `path:"code" doc:"Client code" example:"ACME" minLength:"1" maxLength:"50"`
}

// ServiceInput selects a service by code.
type ServiceInput struct {
	Code string `path:"code" doc:"Service code" example:"TMS" minLength:"1" maxLength:"50"`
}
