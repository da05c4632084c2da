package analyses

import "time"

// DownloadFileName is the attachment name for a downloaded analysis.
const DownloadFileName = "resume_analysis.txt"

// Analysis is one completed resume analysis. Failed analyses are never recorded.
type Analysis struct {
	ID             string    `json:"id"`
	CandidateName  string    `json:"candidateName,omitempty"`
	CandidateEmail string    `json:"candidateEmail,omitempty"`
	TargetRole     string    `json:"targetRole,omitempty"`
	FileName       string    `json:"fileName,omitempty"`
	ResumeKey      string    `json:"resumeKey,omitempty"`
	ResumeChars    int       `json:"resumeChars"`
	JobDescription string    `json:"jobDescription"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	Result         string    `json:"result"`
	MatchScore     *int      `json:"matchScore,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Upload is a resume file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Input holds everything needed to run one analysis.
// Upload is optional and only used to archive the original file.
type Input struct {
	ResumeText     string
	JobDescription string
	CandidateName  string
	CandidateEmail string
	TargetRole     string
	Upload         *Upload
}
