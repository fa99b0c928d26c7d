// Package idmend reconciles participant identities across the tables of a
// clinical study export. A disposition ruleset, authored by study staff,
// says which identifiers to delete, relocate to another identifier, or
// merge into a final identifier. The Engine applies it to every table in
// the fixed order delete, relocate, merge and writes the corrected tables
// together with an audit log of every change.
//
// Example usage:
//
//	eng, err := idmend.New(
//	    idmend.WithInputDir("export/"),
//	    idmend.WithDispositionFile("disposition.xlsx"),
//	    idmend.WithOutputDir("reconciled/"),
//	    idmend.WithRequiredVisits("Screening", "T1", "T2"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng.OnConflict(func(e auditlog.Entry) {
//	    log.Printf("check %s vs %s at %s in %s", e.ParticipantID, e.TargetID, e.Visit, e.Table)
//	})
//
//	summary, err := eng.Run(ctx)
//	if err != nil {
//	    log.Fatal(err) // nothing was written
//	}
//	fmt.Println(summary)
//
// Merge conflicts never fail a run. They are logged with both value
// vectors in merge_log.csv and left for a person to resolve.
package idmend
