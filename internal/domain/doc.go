// Package domain models station flagging statistics for radio-telescope
// calibrator observations and the pass/fail decisions derived from them.
//
// # Data Source
//
// Each calibrator observation is processed by the LINC calibration pipeline,
// which writes a JSON summary next to the observation's other products. The
// summaries live in one directory per observation:
//
//	<data dir>/L<obsid>/<calibrator>_<...>_calibrator_summary.json
//
// The observation ID is the directory name (e.g. "L785747") and the calibrator
// is the file-name prefix before the first underscore (e.g. "3C196").
//
// # Report Conventions
//
// The fields used from the summary are:
//
//	metrics.LINC.field_name                          calibrator field name
//	metrics.LINC.stations[].station                  station identifier
//	metrics.LINC.stations[].percentage_flagged.final flagged data, percent 0-100
//
// Station identifiers carry their network role in the first two characters:
//
//	CSxxx  core station            (e.g. "CS001HBA0")
//	RSxxx  remote station          (e.g. "RS205HBA")
//	other  international station   (e.g. "DE601HBA", "SE607HBA", "IE613HBA")
//
// The prefix match is case-sensitive and anything that is not "CS" or "RS",
// including empty or one-character identifiers, is international. New
// international sites appear regularly so there is no allow-list.
//
// # Statistics
//
// For each station class the median and mean flagged percentage are computed
// together with the number of stations at or above the flagging threshold and
// the number strictly below it. A station exactly at the threshold counts as
// above. A class with no stations in an observation has undefined statistics
// (see [Optional]); undefined is never rendered or summed as zero.
//
// # Pass Decisions
//
// An observation passes for a class when at least the configured minimum
// number of that class's stations are below the threshold. The defaults are a
// 70% threshold with 40 core, 10 remote and 10 international stations. A class
// with no stations fails: there is nothing to show the data is usable.
package domain
