// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package questions is the static question catalog.

The scoring engine validates submitted values against a question's bounds
and classifies revealed values against its scale type, but never stores
scale metadata redundantly - this package is the single source for it.

# Question Sets

Lookup returns a set by ID:

	set, err := questions.Lookup("team-health")

Built-in sets:

  - team-health: 8 questions, the default (questions.DefaultSetID)
  - retro-pulse: 3 questions for a short iteration check

# Scale Types

Each question is either:

  - balance: a central optimal value, deviation in either direction is
    penalized equally (e.g. workload, -5..5 with optimal 0)
  - maximal: higher is strictly better, no optimal value (e.g. team
    atmosphere, 0..10)
*/
package questions
