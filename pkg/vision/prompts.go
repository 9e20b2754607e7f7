package vision

// DescribePrompt instructs remote chat models to answer with a title on the
// first line and the full description on the following lines.
const DescribePrompt = `# Task Context
You are an assistant that describes images for an AI agent.

# Detailed Task Description & Rules
- Look at the attached image and describe what it shows.
- Mention the main subject first, then notable details, colors and mood.
- Do not speculate about things that are not visible.

# Output Formatting
Respond in exactly two parts separated by a line break:
- First line: a short title for the image.
- Remaining lines: the full description.`

// CaptionPrompt is the fixed captioning instruction for local vision
// models, which produce a single caption used as both title and
// description.
const CaptionPrompt = "Describe this image in one detailed paragraph."
