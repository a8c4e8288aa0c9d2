package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchMessagesTool defines the search_messages MCP tool.
var searchMessagesTool = mcp.NewTool("search_messages",
	mcp.WithDescription("Search the chat archive by keyword. Returns scored messages with chat, sender and date."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Keywords to search for, separated by spaces"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("chat",
		mcp.Description("Only search chats whose display name contains this text"),
	),
)

// resolveContactTool defines the resolve_contact MCP tool.
var resolveContactTool = mcp.NewTool("resolve_contact",
	mcp.WithDescription("Resolve a phone number, JID or name to a contact, with the confidence and strategy behind the match."),
	mcp.WithString("identifier",
		mcp.Required(),
		mcp.Description("Phone number, WhatsApp JID or display name to resolve"),
	),
	mcp.WithString("chat_id",
		mcp.Description("Chat id used as resolution context; enables the contextual strategies"),
	),
)

// getChatInfoTool defines the get_chat_info MCP tool.
var getChatInfoTool = mcp.NewTool("get_chat_info",
	mcp.WithDescription("Describe a chat: display name, individual or group, and resolved participants."),
	mcp.WithString("chat_id",
		mcp.Required(),
		mcp.Description("Chat id as stored in the archive"),
	),
)

// suggestChatNameTool defines the suggest_chat_name MCP tool.
var suggestChatNameTool = mcp.NewTool("suggest_chat_name",
	mcp.WithDescription("Propose a human-readable name for a chat based on its stored name or resolved participants."),
	mcp.WithString("chat_id",
		mcp.Required(),
		mcp.Description("Chat id as stored in the archive"),
	),
)
