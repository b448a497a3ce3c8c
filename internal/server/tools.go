package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "plate_recognize",
			Description: "Detect license plates in an image file and read them. Returns every accepted plate with its text, confidence, parsed fields and bounding box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"annotate_output": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for a copy of the image with boxes and plate text drawn on it. The format follows the extension.",
					},
				},
				"required": []string{"path"},
			},
		},

		// Text Operations
		{
			Name:        "plate_correct",
			Description: "Apply positional OCR corrections to plate text: N to M, Z to 2, O to 0, I to 1, S to 5 and B to 8 everywhere, plus 0 to D in the first four characters. Input is uppercased first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Plate text as read by OCR",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "plate_parse",
			Description: "Split corrected plate text into region, office code, series and serial number. Text shorter than 10 characters is not parsed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Corrected plate text",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "plate_select",
			Description: "Choose the best reading from raw OCR candidates, then correct and parse it the same way plate_recognize does.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"candidates": map[string]interface{}{
						"type":        "array",
						"description": "OCR candidates in reading order",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"text": map[string]interface{}{
									"type":        "string",
									"description": "Raw candidate text",
								},
								"confidence": map[string]interface{}{
									"type":        "number",
									"description": "Engine confidence between 0 and 1",
								},
							},
							"required": []string{"text", "confidence"},
						},
					},
				},
				"required": []string{"candidates"},
			},
		},
		{
			Name:        "plate_cache_clear",
			Description: "Forget cached images so plate_recognize reads them from disk again. Clears one path, or the whole cache when path is omitted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Image path exactly as passed to plate_recognize",
					},
				},
			},
		},
		{
			Name:        "plate_region_codes",
			Description: "List the two-letter region codes and the region names they map to.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
