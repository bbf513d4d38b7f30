package entities

// Option is one entry of a modifier dropdown: a display label and the prompt
// fragment appended when it is chosen.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var Styles = []Option{
	{Label: "No Style", Value: ""},
	{Label: "Cyberpunk", Value: ", cyberpunk style, neon lights"},
	{Label: "Anime", Value: ", anime style, studio ghibli"},
	{Label: "Watercolor", Value: ", watercolor painting, artistic"},
	{Label: "Photorealistic", Value: ", photorealistic, 8k, cinematic"},
	{Label: "Oil Painting", Value: ", oil painting, textured"},
	{Label: "3D Render", Value: ", 3d render, pixar style"},
	{Label: "Pixel Art", Value: ", pixel art, 16-bit"},
	{Label: "Synthwave", Value: ", synthwave, retrowave"},
	{Label: "Film Noir", Value: ", film noir, b&w"},
	{Label: "Origami", Value: ", origami style, paper"},
	{Label: "Comic Book", Value: ", comic book style, bold"},
	{Label: "Line Art", Value: ", continuous line drawing, minimalist"},
	{Label: "Surrealism", Value: ", surrealism, salvador dali style"},
	{Label: "Claymation", Value: ", claymation, stop motion, plasticine"},
	{Label: "Horror", Value: ", lovecraftian, eldritch horror, dark"},
	{Label: "Isometric", Value: ", isometric view, 3d, miniature"},
	{Label: "Low Poly", Value: ", low poly, geometric, polygon art"},
	{Label: "Impressionist", Value: ", impressionist painting, van gogh style"},
	{Label: "Steampunk", Value: ", steampunk style, brass, gears"},
}

var Lighting = []Option{
	{Label: "Default", Value: ""},
	{Label: "Cinematic", Value: ", cinematic lighting, dramatic shadows"},
	{Label: "Natural", Value: ", soft natural lighting, sunlight"},
	{Label: "Golden Hour", Value: ", golden hour, warm sunset lighting"},
	{Label: "Studio", Value: ", studio lighting, perfect exposure"},
	{Label: "Neon", Value: ", neon lighting, glowing, vibrant"},
	{Label: "Dark/Moody", Value: ", dark atmosphere, dim lighting, mystery"},
	{Label: "Rembrandt", Value: ", rembrandt lighting, chiaroscuro"},
}

var Moods = []Option{
	{Label: "Default", Value: ""},
	{Label: "Vibrant", Value: ", vibrant colors, high saturation"},
	{Label: "Muted", Value: ", muted colors, desaturated, matte"},
	{Label: "Pastel", Value: ", pastel color palette, soft colors"},
	{Label: "Dark Fantasy", Value: ", dark fantasy, grim, ethereal"},
	{Label: "Ethereal", Value: ", ethereal, dreamy, magical"},
	{Label: "Retro", Value: ", retro aesthetic, vintage filter"},
	{Label: "B&W", Value: ", black and white, monochrome"},
}

var Ratios = []Option{
	{Label: "Square (1:1)", Value: "1:1"},
	{Label: "Landscape (16:9)", Value: "16:9"},
	{Label: "Portrait (9:16)", Value: "9:16"},
	{Label: "Standard (4:3)", Value: "4:3"},
	{Label: "Vertical (3:4)", Value: "3:4"},
}

var Resolutions = []Option{
	{Label: "Standard (1K)", Value: "1K"},
	{Label: "High (2K)", Value: "2K"},
}

// LabelFor returns the label of the option holding value, or fallback when
// value is not in the table.
func LabelFor(options []Option, value, fallback string) string {
	for _, opt := range options {
		if opt.Value == value {
			return opt.Label
		}
	}

	if value != "" {
		return value
	}

	return fallback
}

// ValueFor resolves a label back to its fragment.
func ValueFor(options []Option, label string) (string, bool) {
	for _, opt := range options {
		if opt.Label == label {
			return opt.Value, true
		}
	}

	return "", false
}
