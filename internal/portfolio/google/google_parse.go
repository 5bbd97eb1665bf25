package google

import (
	"fmt"
	"strconv"
	"strings"

	"pdroll/internal/core"
)

// Summary tab header names, as produced by the monthly extract.
const (
	headerContractNo = "CONTRACT NO"
	headerEquipment  = "EQUIPMENT DESCRIPTION"
	headerCategory   = "PD/LGD CATEGORY"
	headerDPD        = "CLIENT DPD"
)

// parseSegmentRows converts a portfolio tab values matrix (columns A:F,
// header excluded) into records. Rows whose month cell does not parse
// keep a zero Month so the merge engine can report them; fully empty
// rows are skipped.
func parseSegmentRows(values [][]interface{}) []core.Record {
	var out []core.Record
	for _, row := range values {
		cols := toStrings(row)
		contractNo := safeGet(cols, 1)
		if safeGet(cols, 0) == "" && contractNo == "" {
			continue
		}
		rec := core.Record{
			ContractNo: contractNo,
			Equipment:  safeGet(cols, 3),
			Category:   safeGet(cols, 4),
		}
		if m, err := core.ParseMonthDate(safeGet(cols, 0)); err == nil {
			rec.Month = m
		}
		if dpd, err := strconv.ParseInt(safeGet(cols, 5), 10, 64); err == nil {
			rec.DPD = dpd
		}
		out = append(out, rec)
	}
	return out
}

// parseSummary converts a summary tab values matrix into records for the
// given month. The first row must carry the named extract headers.
func parseSummary(values [][]interface{}, month core.Month) ([]core.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	colContract := indexOf(headers, headerContractNo)
	colEquipment := indexOf(headers, headerEquipment)
	colCategory := indexOf(headers, headerCategory)
	colDPD := indexOf(headers, headerDPD)
	if colContract == -1 || colEquipment == -1 || colCategory == -1 || colDPD == -1 {
		missing := make([]string, 0, 4)
		for _, h := range []struct {
			name string
			col  int
		}{
			{headerContractNo, colContract},
			{headerEquipment, colEquipment},
			{headerCategory, colCategory},
			{headerDPD, colDPD},
		} {
			if h.col == -1 {
				missing = append(missing, h.name)
			}
		}
		return nil, fmt.Errorf("unexpected summary header: missing %s; got headers=%v",
			strings.Join(missing, ","), headers)
	}

	var out []core.Record
	for i := 1; i < len(values); i++ {
		cols := toStrings(values[i])
		contractNo := safeGet(cols, colContract)
		if contractNo == "" {
			continue
		}
		rec := core.Record{
			Month:      month,
			ContractNo: contractNo,
			Equipment:  safeGet(cols, colEquipment),
			Category:   safeGet(cols, colCategory),
		}
		if dpd, err := strconv.ParseInt(safeGet(cols, colDPD), 10, 64); err == nil {
			rec.DPD = dpd
		}
		out = append(out, rec)
	}
	return out, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
