package stats

import "log/slog"

// Log writes the report as info records, one statistic per record.
func (r *Report) Log(logger *slog.Logger) {
	logger.Info("Apps with at least one extracted identifier",
		"apps", r.AppsWithIdentifiers,
		"total", r.Apps,
	)

	logger.Info("Known and unknown functionality identifiers",
		"identifiers", r.Identifiers,
		"kfu", len(r.KFU),
		"ufu", len(r.UFU),
	)
	logger.Info("Apps by functionality mix",
		"allKfu", r.MixCount(MixAllKFU),
		"allUfu", r.MixCount(MixAllUFU),
		"mixed", r.MixCount(MixMixed),
		"none", r.MixCount(MixEmpty),
	)

	logger.Info("Apps with adopted identifiers",
		"atLeastOne", len(r.AppsWithStandard),
		"atLeastOneMeaningful", len(r.AppsWithMeaningful),
	)
	logger.Info("Apps with only adopted identifiers",
		"apps", len(r.OnlyStandard),
		"onlyCoreServices", len(r.OnlyCore),
		"includesMeaningful", len(r.IncludesMeaningful),
	)

	for _, g := range r.Services {
		logger.Info("Adopted service usage", "service", g.Name, "apps", len(g.Apps))
	}

	logger.Info("Reserved range misuse",
		"identifiers", len(r.MisusedIdentifiers),
		"apps", len(r.MisusingApps),
	)

	for _, g := range r.DFUChipsets {
		logger.Info("DFU chipset usage", "chipset", g.Name, "apps", len(g.Apps))
	}
	logger.Info("Apps with at least one DFU identifier", "apps", len(r.DFUApps))
}
