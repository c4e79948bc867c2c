package hello

// Data is the greeting payload.
type Data struct {
	Message string `json:"message" doc:"Greeting message" example:"Hello World!"`
}
