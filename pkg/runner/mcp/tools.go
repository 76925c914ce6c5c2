package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var statusValues = []string{"all", "active", "completed", "todo", "in_progress", "done", "blocked", "cancelled"}

var bucketValues = []string{"overdue", "today", "thisWeek", "nextWeek", "later", "noDate"}

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListTasksTool(srv, svc)
	registerGetTaskTool(srv, svc)
	registerCreateTaskTool(srv, svc)
	registerUpdateTaskTool(srv, svc)
	registerCompleteTaskTool(srv, svc)
	registerDeleteTaskTool(srv, svc)
	registerAddCommentTool(srv, svc)
	registerListActivitiesTool(srv, svc)
	registerScheduleTool(srv, svc)
}

func filterOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("status",
			mcp.Description("Status filter: all, active, completed or a concrete status."),
			mcp.Enum(statusValues...),
		),
		mcp.WithString("search",
			mcp.Description("Case-insensitive substring matched against title and description."),
		),
		mcp.WithString("project",
			mcp.Description("Only tasks in this project."),
		),
		mcp.WithString("assignee",
			mcp.Description("Only tasks assigned to this person."),
		),
		mcp.WithString("tag",
			mcp.Description("Only tasks carrying this tag."),
		),
		mcp.WithString("within",
			mcp.Description("Only tasks due within this window from today, e.g. 3d, 1w, 2w."),
		),
	}
}

func listOptionsFrom(request mcp.CallToolRequest) ListOptions {
	return ListOptions{
		Status:   request.GetString("status", ""),
		Bucket:   request.GetString("bucket", ""),
		Search:   request.GetString("search", ""),
		Project:  request.GetString("project", ""),
		Assignee: request.GetString("assignee", ""),
		Tag:      request.GetString("tag", ""),
		Within:   request.GetString("within", ""),
		Page:     request.GetInt("page", 0),
		PageSize: request.GetInt("page_size", 0),
	}
}

func registerListTasksTool(srv *server.MCPServer, svc *Service) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("List tasks, optionally filtered and paginated."),
		mcp.WithString("bucket",
			mcp.Description("Only tasks in this schedule bucket."),
			mcp.Enum(bucketValues...),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number. Omit to return every match."),
			mcp.Min(1),
		),
		mcp.WithNumber("page_size",
			mcp.Description("Tasks per page (default 20)."),
			mcp.Min(1),
		),
	}
	tool := mcp.NewTool("list_tasks", append(opts, filterOptions()...)...)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list, err := svc.ListTasks(ctx, listOptionsFrom(request))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(list)
	})
}

func registerGetTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_task",
		mcp.WithDescription("Fetch a single task by id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.TaskByID(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCreateTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"create_task",
		mcp.WithDescription("Create a new task."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title."),
		),
		mcp.WithString("description",
			mcp.Description("Longer description."),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default todo)."),
			mcp.Enum("todo", "in_progress", "done", "blocked", "cancelled"),
		),
		mcp.WithString("due",
			mcp.Description("Due date as YYYY-MM-DD."),
		),
		mcp.WithString("project",
			mcp.Description("Project name."),
		),
		mcp.WithString("assignee",
			mcp.Description("Person responsible for the task."),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags to attach."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Status      string   `json:"status"`
			Due         string   `json:"due"`
			Project     string   `json:"project"`
			Assignee    string   `json:"assignee"`
			Tags        []string `json:"tags"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.CreateTask(ctx, CreateOptions(args))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerUpdateTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"update_task",
		mcp.WithDescription("Update fields of a task. Omitted fields keep their value."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier."),
		),
		mcp.WithString("title", mcp.Description("New title; must not be blank.")),
		mcp.WithString("description", mcp.Description("New description.")),
		mcp.WithString("status",
			mcp.Description("New status."),
			mcp.Enum("todo", "in_progress", "done", "blocked", "cancelled"),
		),
		mcp.WithString("due", mcp.Description("New due date as YYYY-MM-DD.")),
		mcp.WithNumber("progress", mcp.Description("Progress 0-100."), mcp.Min(0), mcp.Max(100)),
		mcp.WithNumber("rating", mcp.Description("Rating 1-5."), mcp.Min(1), mcp.Max(5)),
		mcp.WithString("project", mcp.Description("New project name.")),
		mcp.WithString("assignee", mcp.Description("New assignee.")),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			ID          string  `json:"id"`
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Status      string  `json:"status"`
			Due         string  `json:"due"`
			Progress    *int    `json:"progress"`
			Rating      *int    `json:"rating"`
			Project     *string `json:"project"`
			Assignee    *string `json:"assignee"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.ID == "" {
			return mcp.NewToolResultError("id is required"), nil
		}

		dto, err := svc.UpdateTask(ctx, args.ID, UpdateOptions{
			Title:       args.Title,
			Description: args.Description,
			Status:      args.Status,
			Due:         args.Due,
			Progress:    args.Progress,
			Rating:      args.Rating,
			Project:     args.Project,
			Assignee:    args.Assignee,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerCompleteTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"complete_task",
		mcp.WithDescription("Mark a task as done."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier to complete."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.CompleteTask(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerDeleteTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"delete_task",
		mcp.WithDescription("Delete a task permanently."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier to delete."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.DeleteTask(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"id": id, "deleted": true})
	})
}

func registerAddCommentTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"add_comment",
		mcp.WithDescription("Append a comment to a task's activity feed. Returns the updated task."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier."),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Comment text."),
		),
		mcp.WithString("author",
			mcp.Description("Who wrote the comment."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		message, err := request.RequireString("message")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.AddComment(ctx, id, request.GetString("author", ""), message)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerListActivitiesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_activities",
		mcp.WithDescription("List a task's activity feed, newest first."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		activities, err := svc.Activities(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"id": id, "count": len(activities), "activities": activities})
	})
}

func registerScheduleTool(srv *server.MCPServer, svc *Service) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Group tasks into overdue, today, this week, next week, later and no date."),
	}
	tool := mcp.NewTool("schedule", append(opts, filterOptions()...)...)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sections, err := svc.Schedule(ctx, listOptionsFrom(request))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"sections": sections})
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
