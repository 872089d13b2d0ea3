// pkg/registry/schema.go
package registry

// ActivityRegistry is the catalog of job types the BPMN models may reference.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one service task type and its variable contract.
type Activity struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	TaskType     string                 `json:"taskType"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"` // BPMN error codes the worker may throw
	Timeout      string                 `json:"timeout"`    // Go duration
	Retries      int                    `json:"retries"`
	Workflows    []string               `json:"workflows"` // BPMN process ids
}
