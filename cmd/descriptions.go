package cmd

const rootLongDescription = `Guardcheck statically verifies that a conditionally compiled source library
keeps its feature flags, guard spans and metadata consistent.

It reads the library's configuration source to extract the flag registry,
then cross-references every flag-gated component: definition files must be
wholly wrapped in their guard, aggregator includes and scattered references
must sit inside matching guard spans, and feature operations may only appear
under their feature flag. A second suite validates the library layout:
required files and directories, metadata fields, the keyword index and
example sketch placement.

Both suites run when no subcommand is given. The exit status is zero only
when every executed check passed.

Conventions are loaded from a guardcheck.toml in the target directory when
present, or from the file named with --profile.`

const conditionalLongDescription = `Run the guard consistency suite on its own.

The suite extracts the flag registry from the configuration source, then
verifies self guards, aggregator inclusion guards, feature operation guards,
cross-file usage guards, directive balance and example tier hints.`

const structureLongDescription = `Run the library structure suite on its own.

The suite verifies required files and directories, that no stray sources sit
in the library root, the metadata fields and version format, the keyword
index and the example sketch layout.`

const flagsLongDescription = `Extract and display the flag registry from the target's configuration
source without running any checks.

Each flag is listed with its default value, the board tier gating it and the
line it is defined on.`
