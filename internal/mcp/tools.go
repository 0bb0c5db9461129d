package mcp

import "github.com/mark3labs/mcp-go/mcp"

var addToolDef = mcp.NewTool("comment_add",
	mcp.WithDescription("Add a reusable comment. The shortcode and category are derived when omitted."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Full comment text")),
	mcp.WithString("shortcode", mcp.Description("Short label shown in menus (max 30 chars); derived from the text when omitted")),
	mcp.WithString("category", mcp.Description("Category name; defaults to General")),
)

var getToolDef = mcp.NewTool("comment_get",
	mcp.WithDescription("Fetch a single comment by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Comment id")),
)

var listToolDef = mcp.NewTool("comment_list",
	mcp.WithDescription("List comments sorted by usage count, optionally filtered by category and search term."),
	mcp.WithString("category", mcp.Description("Category filter; \"All\" or empty matches everything")),
	mcp.WithString("search", mcp.Description("Case-insensitive match against text and shortcode")),
)

var updateToolDef = mcp.NewTool("comment_update",
	mcp.WithDescription("Update a comment. Omitted fields are left unchanged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Comment id")),
	mcp.WithString("text", mcp.Description("New comment text")),
	mcp.WithString("shortcode", mcp.Description("New shortcode")),
	mcp.WithString("category", mcp.Description("New category")),
)

var deleteToolDef = mcp.NewTool("comment_delete",
	mcp.WithDescription("Delete a comment by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Comment id")),
)

var useToolDef = mcp.NewTool("comment_use",
	mcp.WithDescription("Record a use of a comment and return its text."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Comment id")),
)

var topToolDef = mcp.NewTool("comment_top",
	mcp.WithDescription("Return the most-used comments."),
	mcp.WithNumber("limit", mcp.Description("Maximum entries to return; defaults to 8")),
)

var categoriesToolDef = mcp.NewTool("comment_categories",
	mcp.WithDescription("Return the distinct categories in use, with \"All\" first."),
)

var seedToolDef = mcp.NewTool("comment_seed",
	mcp.WithDescription("Populate an empty store with the built-in sample comments. No-op when comments exist."),
)
