package domain

// Stage is the position an evaluation reached in its state machine.
type Stage string

// Evaluation stages, in order.
const (
	StageFetching   Stage = "fetching"
	StageComputing  Stage = "computing"
	StageConverting Stage = "converting"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
)

// EvaluationOutcome is the typed result of one (pair, block) evaluation.
// Err is nil only when Stage is StageDone.
type EvaluationOutcome struct {
	Pair     PairDescriptor
	Block    BlockRef
	Stage    Stage       // last stage entered
	Tick     int32       // average tick, valid once computing succeeded
	Point    *PricePoint // set once conversion succeeded
	Inserted bool        // false when the record already existed
	Err      error       // reason the pair was skipped
}

// Skipped reports whether the evaluation was abandoned.
func (o EvaluationOutcome) Skipped() bool {
	return o.Err != nil
}
