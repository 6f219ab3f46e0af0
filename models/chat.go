package models

type ChatPostRequest struct {
	// Message from the user. Missing or invalid values are treated as empty.
	Message string `json:"message"`
}

type ChatPostResponse struct {
	Reply string `json:"reply"`
}
