package result

// KindThreshold holds the cutoffs for one source kind.
type KindThreshold struct {
	// SignificanceCutoff mutes records with padj above this value.
	SignificanceCutoff float64
	// MinScore mutes records with |score| below this magnitude.
	MinScore float64
}

// ThresholdConfig carries per-kind cutoffs. Different sources legitimately
// use different thresholds (TE tables are usually noisier than GSEA).
// The zero value of a missing kind falls back to Default.
type ThresholdConfig struct {
	Default KindThreshold
	PerKind map[SourceKind]KindThreshold
}

// DefaultThresholds returns the documented defaults: FDR 0.05, no score
// floor, applied uniformly to every kind.
func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		Default: KindThreshold{SignificanceCutoff: 0.05, MinScore: 0},
	}
}

// For returns the threshold in effect for a kind.
func (c ThresholdConfig) For(kind SourceKind) KindThreshold {
	if t, ok := c.PerKind[kind]; ok {
		return t
	}
	return c.Default
}

// passes reports whether a record clears the threshold for its kind.
func (c ThresholdConfig) passes(r *ResultRecord) bool {
	t := c.For(r.Kind)
	if r.Padj > t.SignificanceCutoff {
		return false
	}
	abs := r.Score
	if abs < 0 {
		abs = -abs
	}
	return abs >= t.MinScore
}

// ApplyThresholds partitions records into hit and background by setting
// each record's Hit flag. Background records are kept: the dashboard mutes
// them rather than hiding them, so near-miss results stay inspectable.
// Deterministic and idempotent: the flags depend only on record + config.
func ApplyThresholds(records []*ResultRecord, cfg ThresholdConfig) (hits, background int) {
	for _, r := range records {
		r.Hit = cfg.passes(r)
		if r.Hit {
			hits++
		} else {
			background++
		}
	}
	return hits, background
}

// Hits returns the records currently flagged as hits.
func Hits(records []*ResultRecord) []*ResultRecord {
	out := make([]*ResultRecord, 0, len(records))
	for _, r := range records {
		if r.Hit {
			out = append(out, r)
		}
	}
	return out
}
