package domain

type EnforceRequest struct {
	SubjectID string `json:"subject_id" binding:"required"`
	OrgID     string `json:"org_id" binding:"required"`
	Resource  string `json:"resource" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}
