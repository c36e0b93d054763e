package auth

const (
	ScopeWorkflowsRead    = "workflows:read"
	ScopeWorkflowsExecute = "workflows:execute"
	ScopeDiscussionsRead  = "discussions:read"
	ScopeDiscussionsWrite = "discussions:write"
)

// AllScopes is granted to the dev principal when verification is bypassed.
var AllScopes = []string{
	ScopeWorkflowsRead,
	ScopeWorkflowsExecute,
	ScopeDiscussionsRead,
	ScopeDiscussionsWrite,
}
