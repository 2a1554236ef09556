package dialect

// Function classes shared by most dialects.
var (
	StandardAggregates = []string{
		"sum", "count", "avg", "min", "max",
		"stddev", "stddev_pop", "stddev_samp", "variance", "var_pop", "var_samp",
		"array_agg", "string_agg", "listagg", "bool_and", "bool_or",
		"every", "any_value", "median", "mode", "percentile_cont", "percentile_disc",
		"approx_count_distinct", "covar_pop", "covar_samp", "corr",
	}

	StandardGenerators = []string{
		"current_date", "current_time", "current_timestamp", "localtime", "localtimestamp",
		"now", "random", "uuid", "gen_random_uuid", "pi",
	}

	StandardWindows = []string{
		"row_number", "rank", "dense_rank", "percent_rank", "cume_dist", "ntile",
		"lag", "lead", "first_value", "last_value", "nth_value",
	}
)
