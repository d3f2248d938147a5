package rcm

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ERAClaim is one claim-level entry parsed from a remittance payload.
type ERAClaim struct {
	ClaimNumber      string     `json:"claim_number"`
	PatientName      string     `json:"patient_name"`
	ServiceDate      *time.Time `json:"service_date,omitempty"`
	ChargedAmount    float64    `json:"charged_amount"`
	PaidAmount       float64    `json:"paid_amount"`
	AdjustmentAmount float64    `json:"adjustment_amount"`
	AdjustmentReason string     `json:"adjustment_reason"`
}

// ParsedERA is the structured result of parsing a remittance payload.
// Structural problems are reported in Errors with Valid=false; ParseERA never
// fails outright because malformed files still become reviewable batches.
type ParsedERA struct {
	Valid       bool       `json:"is_valid"`
	PayerName   string     `json:"payer_name"`
	CheckNumber string     `json:"check_number"`
	CheckDate   *time.Time `json:"check_date,omitempty"`
	TotalAmount float64    `json:"total_amount"`
	Claims      []ERAClaim `json:"claims"`
	Errors      []string   `json:"errors,omitempty"`
}

// ParseERA parses a simplified pipe-delimited remittance advice. The format
// abstracts the claim-payment level of an X12 835:
//
//	ERA|payer name|check number|check date|total amount
//	CLP|claim number|patient name|service date|charged|paid|adjustment|reason code
//	CLP|...
//
// Blank lines and lines starting with '#' are ignored. A payload without a
// well-formed ERA header line is structurally invalid.
func ParseERA(raw []byte) *ParsedERA {
	result := &ParsedERA{}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	headerSeen := false
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "|")
		switch fields[0] {
		case "ERA":
			if headerSeen {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: duplicate ERA header", lineNum))
				continue
			}
			if len(fields) < 5 {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: ERA header has %d fields, want 5", lineNum, len(fields)))
				continue
			}
			headerSeen = true
			result.PayerName = strings.TrimSpace(fields[1])
			result.CheckNumber = strings.TrimSpace(fields[2])
			if d, err := ParseDate(strings.TrimSpace(fields[3])); err == nil {
				result.CheckDate = &d
			}
			total, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: total amount %q is not numeric", lineNum, fields[4]))
				continue
			}
			result.TotalAmount = RoundCents(total)
		case "CLP":
			claim, errs := parseClaimLine(fields, lineNum)
			if len(errs) > 0 {
				result.Errors = append(result.Errors, errs...)
				continue
			}
			result.Claims = append(result.Claims, *claim)
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: unknown segment %q", lineNum, fields[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		return &ParsedERA{Valid: false, Errors: []string{"Invalid ERA format"}}
	}

	if !headerSeen || len(result.Claims) == 0 {
		return &ParsedERA{Valid: false, Errors: []string{"Invalid ERA format"}}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func parseClaimLine(fields []string, lineNum int) (*ERAClaim, []string) {
	if len(fields) < 8 {
		return nil, []string{fmt.Sprintf("line %d: CLP segment has %d fields, want 8", lineNum, len(fields))}
	}

	claim := &ERAClaim{
		ClaimNumber:      strings.TrimSpace(fields[1]),
		PatientName:      strings.TrimSpace(fields[2]),
		AdjustmentReason: strings.TrimSpace(fields[7]),
	}

	var errs []string
	if claim.ClaimNumber == "" {
		errs = append(errs, fmt.Sprintf("line %d: claim number is empty", lineNum))
	}
	if d, err := ParseDate(strings.TrimSpace(fields[3])); err == nil {
		claim.ServiceDate = &d
	}

	amounts := []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"charged", 4, &claim.ChargedAmount},
		{"paid", 5, &claim.PaidAmount},
		{"adjustment", 6, &claim.AdjustmentAmount},
	}
	for _, a := range amounts {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[a.idx]), 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %s amount %q is not numeric", lineNum, a.name, fields[a.idx]))
			continue
		}
		*a.dst = RoundCents(v)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return claim, nil
}
