// Package domain models the Our World in Data (OWID) COVID-19 dataset and the
// cleaning and aggregation steps applied to it.
//
// # Data Source
//
// OWID publishes a single wide CSV at
// https://covid.ourworldindata.org/data/owid-covid-data.csv with one row per
// (location, date). The file carries 60+ columns; only the ones named by the
// Col* constants are modeled here. Locations include real countries as well
// as aggregate entities ("World", "Asia", "European Union", ...), whose
// iso_code values use the "OWID_" prefix (e.g. OWID_WRL).
//
// # Conventions
//
// Dates:
//
//	ISO 8601 calendar dates, e.g. "2021-03-15". Parsed as midnight UTC.
//
// Missing values:
//
//	Empty cells are common, especially for vaccination and death counts early
//	in a series. They decode to nil pointers. [FillMissing] replaces nil with 0
//	for the four key metrics only; optional columns stay nullable.
//
// Death rate:
//
//	death_rate = total_deaths / total_cases * 100, rounded to two decimals
//	(half-to-even). Undefined (nil) when total_cases is 0.
//
// Rolling average:
//
//	Trailing mean of new_cases over the last N samples of a location, N = 7
//	by default. The first N-1 samples of each location have no value.
//
// # Pipeline Shape
//
//	Dataset ─ ParseDates ─ DropLocations(Aggregates) ─ KeepLocations(CountriesOfInterest)
//	        ─ FillMissing ─ AddDeathRate ─ Analyze (snapshot, series, rolling, map)
//
// Every step returns a new Dataset; inputs are never modified.
package domain
