package handlers

// OperatorsResponse is the response for the operator list
type OperatorsResponse struct {
	Operators []string `json:"operators"`
}

// LogLevelResponse is the response for log level queries
type LogLevelResponse struct {
	Level string `json:"level"`
}
