// Package dto holds the JSON request and response shapes of the API.
package dto

// Response is the success envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Errors  map[string]string      `json:"errors,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// OK wraps data in a success envelope
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// OKMessage wraps data in a success envelope with a message
func OKMessage(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

// CountResponse carries a single count
type CountResponse struct {
	Count int64 `json:"count"`
}

// ListParams are the paging parameters of the registry list endpoints
type ListParams struct {
	Page           int  `query:"page" validate:"min=0"`
	Size           int  `query:"size" validate:"min=0,max=500"`
	IncludeDeleted bool `query:"includeDeleted"`
}
