package api

// startReviewRequest is POST /review/start's body, grounded on
// original_source's StartReviewRequest. Graph execution itself no longer
// starts here (see handler_review.go's runReview) — only the task and its
// initial domain checklist are provisioned.
type startReviewRequest struct {
	TaskID        string `json:"task_id" binding:"required"`
	DomainID      string `json:"domain_id"`
	DomainSubtype string `json:"domain_subtype"`
	OurParty      string `json:"our_party"`
	Language      string `json:"language"`
}

// approvalRequest is POST /review/{task_id}/approve's body.
type approvalRequest struct {
	DiffID   string `json:"diff_id" binding:"required"`
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
	Feedback string `json:"feedback"`
}

// batchApprovalRequest is POST /review/{task_id}/approve-batch's body.
type batchApprovalRequest struct {
	Approvals []approvalRequest `json:"approvals" binding:"required,min=1,dive"`
}

// exportRequest is POST /review/{task_id}/export's body.
type exportRequest struct {
	Format string `json:"format"`
}
