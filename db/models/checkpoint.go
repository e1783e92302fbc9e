package models

// Checkpoint is one row of the append-only state log. (ThreadID, Seq) is
// unique; the latest state of a thread is the row with the highest Seq.
type Checkpoint struct {
	ID        string `gorm:"column:id;type:text;primaryKey"`
	ThreadID  string `gorm:"column:thread_id;type:text;not null;uniqueIndex:uniq_thread_seq,priority:1"`
	Seq       int64  `gorm:"column:seq;not null;uniqueIndex:uniq_thread_seq,priority:2"`
	ParentID  string `gorm:"column:parent_id;type:text"`
	State     []byte `gorm:"column:state;not null"`
	CreatedAt int64  `gorm:"column:created_at;not null"`
}

func (Checkpoint) TableName() string { return "checkpoints" }
