package sbu

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/trueup/trueup/pkg/check"
	"github.com/trueup/trueup/pkg/types"
)

// ErrPendingReview is returned when an aggregation is requested before
// staff have reviewed every finding.
var ErrPendingReview = errors.New("findings pending staff review")

// Assessor runs an SBU's catalogue of checks over a filing and
// aggregates the findings into line item approvals and the revenue
// requirement.
type Assessor struct {
	checks    *check.Map
	catalogue *Catalogue

	tolPass float64
	tolWarn float64
}

// NewAssessor returns an Assessor over the given check registry and
// catalogue with the default reconciliation tolerances.
func NewAssessor(checks *check.Map, catalogue *Catalogue) *Assessor {
	return &Assessor{checks: checks, catalogue: catalogue, tolPass: 0.01, tolWarn: 0.5}
}

// SetTolerances replaces the reconciliation bands, usually from
// settings. Zero values keep the defaults.
func (a *Assessor) SetTolerances(pass, warn float64) {
	if pass > 0 {
		a.tolPass = pass
	}
	if warn > 0 {
		a.tolWarn = warn
	}
}

// Assess runs every catalogue check of the filing's SBU and returns
// the findings in catalogue order.
func (a *Assessor) Assess(f *types.Filing) ([]types.Finding, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	defs, err := a.catalogue.LineItems(f.SBU)
	if err != nil {
		return nil, err
	}

	var out []types.Finding
	for _, def := range defs {
		for _, id := range def.Checks {
			c, err := a.checks.Check(id)
			if err != nil {
				return nil, err
			}
			finding, err := c.Evaluate(f)
			if err != nil {
				return nil, fmt.Errorf("evaluating %s: %w", id, err)
			}
			out = append(out, finding)
		}
	}
	return out, nil
}

// FlagCounts tallies findings by their effective flag.
type FlagCounts struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

func (fc *FlagCounts) add(f types.Flag) {
	switch f {
	case types.FlagGreen:
		fc.Green++
	case types.FlagYellow:
		fc.Yellow++
	case types.FlagRed:
		fc.Red++
	}
}

// ReviewCounts tallies findings by review status.
type ReviewCounts struct {
	Pending    int `json:"pending"`
	Accepted   int `json:"accepted"`
	Overridden int `json:"overridden"`
}

// LineItemSummary is the rolled-up state of one catalogue row.
type LineItemSummary struct {
	Key      string        `json:"key"`
	Name     string        `json:"name"`
	Pattern  types.Pattern `json:"pattern"`
	Expense  bool          `json:"expense"`
	Claimed  float64       `json:"claimed"`
	Approved float64       `json:"approved"`
	Flag     types.Flag    `json:"flag"`
	CheckIDs []string      `json:"checkIDs,omitempty"`
	Pending  int           `json:"pending"`
}

// Summary is the dashboard view of an assessed filing.
type Summary struct {
	SBU       string            `json:"sbu"`
	Year      string            `json:"year"`
	LineItems []LineItemSummary `json:"lineItems"`
	Flags     FlagCounts        `json:"flags"`
	Review    ReviewCounts      `json:"review"`
	// Ready is true once no finding is pending review; only then can
	// the revenue requirement be assembled.
	Ready bool `json:"ready"`
}

// Summarize rolls the findings up into per line item approvals and
// review progress. Every catalogue check must have a finding.
func (a *Assessor) Summarize(f *types.Filing, findings []types.Finding) (Summary, error) {
	defs, err := a.catalogue.LineItems(f.SBU)
	if err != nil {
		return Summary{}, err
	}
	byID := indexFindings(findings)

	out := Summary{SBU: f.SBU, Year: f.Year, Ready: true}
	for _, def := range defs {
		li, err := summarizeItem(f, def, byID)
		if err != nil {
			return Summary{}, err
		}
		out.LineItems = append(out.LineItems, li)
		if li.Pending > 0 {
			out.Ready = false
		}
		for _, id := range def.Checks {
			fd := byID[id]
			out.Flags.add(fd.EffectiveFlag())
			switch fd.Review.Status {
			case types.ReviewAccepted:
				out.Review.Accepted++
			case types.ReviewOverridden:
				out.Review.Overridden++
			default:
				out.Review.Pending++
			}
		}
	}
	return out, nil
}

// Pending returns the findings staff have not acted on yet.
func Pending(findings []types.Finding) []types.Finding {
	var out []types.Finding
	for _, fd := range findings {
		if !fd.Reviewed() {
			out = append(out, fd)
		}
	}
	return out
}

// ReconcileVerdict grades the difference between the computed revenue
// requirement and the published total.
type ReconcileVerdict string

const (
	ReconcilePass ReconcileVerdict = "pass"
	ReconcileWarn ReconcileVerdict = "warn"
	ReconcileFail ReconcileVerdict = "fail"
)

// ARRLine is one row of the assembled revenue requirement.
type ARRLine struct {
	Key      string     `json:"key"`
	Name     string     `json:"name"`
	Expense  bool       `json:"expense"`
	Claimed  float64    `json:"claimed"`
	Approved float64    `json:"approved"`
	Flag     types.Flag `json:"flag"`
}

// ARRStatement is the aggregate revenue requirement assembled from
// reviewed findings.
type ARRStatement struct {
	SBU   string    `json:"sbu"`
	Year  string    `json:"year"`
	Lines []ARRLine `json:"lines"`

	GrossExpense float64 `json:"grossExpense"`
	IncomeOffset float64 `json:"incomeOffset"`
	TotalARR     float64 `json:"totalARR"`

	Published  *types.PublishedTotals `json:"published,omitempty"`
	Difference float64                `json:"difference"`
	Verdict    ReconcileVerdict       `json:"verdict,omitempty"`
}

// ARR assembles the revenue requirement. It fails with
// ErrPendingReview until staff have acted on every finding.
func (a *Assessor) ARR(f *types.Filing, findings []types.Finding) (ARRStatement, error) {
	defs, err := a.catalogue.LineItems(f.SBU)
	if err != nil {
		return ARRStatement{}, err
	}
	if pending := Pending(findings); len(pending) > 0 {
		return ARRStatement{}, fmt.Errorf("%w: %d of %d", ErrPendingReview, len(pending), len(findings))
	}
	byID := indexFindings(findings)

	out := ARRStatement{SBU: f.SBU, Year: f.Year}
	for _, def := range defs {
		li, err := summarizeItem(f, def, byID)
		if err != nil {
			return ARRStatement{}, err
		}
		out.Lines = append(out.Lines, ARRLine{
			Key:      li.Key,
			Name:     li.Name,
			Expense:  li.Expense,
			Claimed:  li.Claimed,
			Approved: li.Approved,
			Flag:     li.Flag,
		})
		if li.Expense {
			out.GrossExpense += li.Approved
		} else {
			out.IncomeOffset += li.Approved
		}
	}
	out.GrossExpense = round2(out.GrossExpense)
	out.IncomeOffset = round2(out.IncomeOffset)
	out.TotalARR = round2(out.GrossExpense - out.IncomeOffset)

	if f.Published != nil {
		out.Published = f.Published
		out.Difference = round2(out.TotalARR - f.Published.NetARR)
		switch diff := math.Abs(out.Difference); {
		case diff <= a.tolPass:
			out.Verdict = ReconcilePass
		case diff <= a.tolWarn:
			out.Verdict = ReconcileWarn
		default:
			out.Verdict = ReconcileFail
		}
	}
	return out, nil
}

// Snapshot is the exportable record of one assessed filing.
type Snapshot struct {
	Filing   *types.Filing   `json:"filing"`
	Findings []types.Finding `json:"findings"`
	Summary  Summary         `json:"summary"`
	// ARR is nil until every finding is reviewed.
	ARR         *ARRStatement `json:"arr,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Export assembles the audit snapshot of the filing, its findings and
// the aggregation state.
func (a *Assessor) Export(f *types.Filing, findings []types.Finding) (Snapshot, error) {
	summary, err := a.Summarize(f, findings)
	if err != nil {
		return Snapshot{}, err
	}
	out := Snapshot{
		Filing:      f,
		Findings:    findings,
		Summary:     summary,
		GeneratedAt: time.Now().UTC(),
	}
	if summary.Ready {
		arr, err := a.ARR(f, findings)
		if err != nil {
			return Snapshot{}, err
		}
		out.ARR = &arr
	}
	return out, nil
}

// summarizeItem rolls one catalogue row up from its findings. The
// approved amount follows the row's pattern: externally approved rows
// pass through, single rows take their primary check, multi rows sum
// the primary monetary findings.
func summarizeItem(f *types.Filing, def LineItemDef, byID map[string]types.Finding) (LineItemSummary, error) {
	out := LineItemSummary{
		Key:      def.Key,
		Name:     def.Name,
		Pattern:  def.Pattern,
		Expense:  def.Expense,
		CheckIDs: def.Checks,
	}

	claim, err := f.Claim(def.Key)
	if err != nil {
		return LineItemSummary{}, err
	}
	out.Claimed = claim.ClaimedAmount

	if def.Pattern == types.PatternNone {
		out.Approved = claim.ExternalApproved
		out.Flag = types.FlagGreen
		return out, nil
	}

	var flags []types.Flag
	var approved float64
	var havePrimary bool
	for _, id := range def.Checks {
		fd, ok := byID[id]
		if !ok {
			return LineItemSummary{}, fmt.Errorf("no finding for check %s; assess the filing first", id)
		}
		if !fd.Reviewed() {
			out.Pending++
		}
		flags = append(flags, fd.EffectiveFlag())
		if !fd.Primary || !monetaryOutput(fd.OutputType) {
			continue
		}
		switch def.Pattern {
		case types.PatternSingle:
			if !havePrimary {
				approved = fd.ApprovedAmount()
				havePrimary = true
			}
		case types.PatternMulti:
			approved += fd.ApprovedAmount()
			havePrimary = true
		}
	}
	if !havePrimary {
		return LineItemSummary{}, fmt.Errorf("line item %s has no primary finding", def.Key)
	}
	out.Approved = round2(approved)
	out.Flag = types.StrictestFlag(flags...)
	return out, nil
}

// monetaryOutput reports whether the output type carries an amount a
// line item can sum. Assessments and calculated values carry
// percentages instead.
func monetaryOutput(t types.OutputType) bool {
	switch t {
	case types.OutputAssessment, types.OutputCalculatedValue:
		return false
	}
	return true
}

func indexFindings(findings []types.Finding) map[string]types.Finding {
	out := make(map[string]types.Finding, len(findings))
	for _, fd := range findings {
		out[fd.CheckID] = fd
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
