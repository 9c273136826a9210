package llm

var AgentTools = []Tool{
	{
		Name:        "get_time",
		Description: "Get the current local date and time of day.",
		Parameters:  obj(nil),
	},
	{
		Name:        "get_bell_schedule",
		Description: "List the bell calendar: lesson number with start and end time.",
		Parameters:  obj(nil),
	},
	{
		Name:        "get_schedule",
		Description: "Get the user's submitted daily schedule, one label per lesson. '-' means no lesson.",
		Parameters:  obj(nil),
	},
	{
		Name:        "get_recommendations",
		Description: "Analyse the user's schedule at the current time: empty classrooms and lessons starting within 15 minutes. Credits green points for empty classrooms.",
		Parameters:  obj(nil),
	},
	{
		Name:        "get_points",
		Description: "Get the user's green points balance.",
		Parameters:  obj(nil),
	},
	{
		Name:        "money_saved",
		Description: "Describe what the user's green points are worth in tenge.",
		Parameters:  obj(nil),
	},
	{
		Name:        "leaderboard",
		Description: "List the users with the most green points.",
		Parameters: obj(map[string]any{
			"limit": prop("integer", "How many entries to return (default 5)"),
		}),
	},
	{
		Name:        "list_devices",
		Description: "List the user's simulated devices and whether each is on or off.",
		Parameters:  obj(nil),
	},
	{
		Name:        "toggle_device",
		Description: "Switch a device on if it is off, or off if it is on.",
		Parameters: objReq(map[string]any{
			"name": prop("string", "Device name exactly as registered"),
		}, "name"),
	},
	{
		Name:        "forecast_load",
		Description: "Estimate the energy consumption of the user's active devices for the next hour.",
		Parameters:  obj(nil),
	},
}

// Helper functions for building JSON Schema objects.

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func obj(properties map[string]any) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func objReq(properties map[string]any, required ...string) map[string]any {
	s := obj(properties)
	s["required"] = required
	return s
}
