package models

// ProofKind identifies what kind of artifact proves a session took place
type ProofKind string

const (
	ProofSignature ProofKind = "signature"
	ProofPDF       ProofKind = "pdf"
)

// Valid reports whether k is a known proof kind
func (k ProofKind) Valid() bool {
	return k == ProofSignature || k == ProofPDF
}
