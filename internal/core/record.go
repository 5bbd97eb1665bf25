package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Record is one contract's monthly risk observation. Columns owned by the
// external store (formula-derived fields) are never represented here.
type Record struct {
	Month      Month
	ContractNo string
	Equipment  string // equipment description
	Category   string // PD/LGD category
	DPD        int64  // client days past due
}

// RecordKey identifies one logical fact: at most one Record exists per
// key after a merge. Month identity is (year, month) only.
type RecordKey struct {
	Year       int
	Month      time.Month
	ContractNo string
}

// Key returns the deduplication key for the record.
func (r Record) Key() RecordKey {
	return RecordKey{
		Year:       r.Month.Year(),
		Month:      r.Month.Month(),
		ContractNo: r.ContractNo,
	}
}

var (
	ErrEmptyContractNo = errors.New("empty contract number")
	ErrMissingMonth    = errors.New("missing month")
	ErrInvalidDPD      = errors.New("invalid days past due")
)

func (r Record) Validate() error {
	if r.Month.IsZero() {
		return ErrMissingMonth
	}
	if strings.TrimSpace(r.ContractNo) == "" {
		return ErrEmptyContractNo
	}
	if r.DPD < 0 {
		return ErrInvalidDPD
	}
	return nil
}

// SortRecords orders records ascending by month, ties broken by contract
// number for determinism.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if c := CompareMonths(records[i].Month, records[j].Month); c != 0 {
			return c < 0
		}
		return records[i].ContractNo < records[j].ContractNo
	})
}
