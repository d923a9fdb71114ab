package metadata

import (
	"fmt"
	"strings"
	"time"
)

// LabelParams carries everything the crate label template can reference.
type LabelParams struct {
	CrateID  string
	ItemName string
	Quantity float64
	Weight   float64
	BatchID  string
	Now      time.Time
}

// BatchID derives the daily goods-received batch identifier for a
// warehouse: its configured prefix plus ddmmyy. Warehouses without a
// prefix fall back to the first segment of their id.
func BatchID(prefix, warehouseID string, now time.Time) string {
	if prefix == "" {
		prefix = strings.ReplaceAll(strings.SplitN(warehouseID, "-", 2)[0], " ", "")
	}
	return prefix + now.Format("020106")
}

// RenderLabel fills a warehouse crate label template. Templates use the
// placeholders {qr_code}, {description1}, {description2}, {quantity},
// {weight}, {batch_id} and {time}.
func RenderLabel(template string, p LabelParams) string {
	label := strings.NewReplacer(
		"{qr_code}", p.CrateID,
		"{description1}", clip(p.ItemName, 0, 15),
		"{description2}", clip(p.ItemName, 15, 30),
		"{quantity}", fmt.Sprintf("%g pcs", p.Quantity),
		"{weight}", fmt.Sprintf("%g KG", p.Weight),
		"{batch_id}", p.BatchID,
		"{time}", p.Now.Format("15:04 PM"),
	).Replace(template)
	return label + "\n"
}

func clip(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
