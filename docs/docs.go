// Package docs registers the OpenAPI document served at /api/swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}},
        "/feed": {"get": {"tags": ["feed"], "summary": "Read a feed page", "parameters": [{"type": "string", "description": "global, following, popular or recent", "name": "filter", "in": "query"}, {"type": "integer", "description": "0-based page", "name": "page", "in": "query"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.FeedPage"}}, "400": {"description": "Bad Request"}}}},
        "/search": {"get": {"tags": ["search"], "summary": "Search users and posts", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/posts": {"post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Create a post", "consumes": ["application/json", "multipart/form-data"], "parameters": [{"type": "string", "name": "content", "in": "formData", "required": true}, {"type": "file", "name": "image", "in": "formData"}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Post"}}, "400": {"description": "Bad Request"}}}},
        "/posts/{id}": {
            "get": {"tags": ["posts"], "summary": "Get a post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Post"}}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Edit a post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Delete a post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/posts/{id}/like": {"post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Like or unlike a post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/posts/{id}/comments": {
            "get": {"tags": ["comments"], "summary": "List a post's comments", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["comments"], "summary": "Comment on a post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found"}}}
        },
        "/users/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get the caller's profile", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update email and/or password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/users/me/picture": {"post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Upload a profile picture", "consumes": ["multipart/form-data"], "parameters": [{"type": "file", "name": "image", "in": "formData", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/users/{username}": {"get": {"tags": ["users"], "summary": "Get a user's profile", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/{username}/follow": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["follows"], "summary": "Follow a user", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["follows"], "summary": "Unfollow a user", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/users/{username}/followers": {"get": {"tags": ["follows"], "summary": "List who follows a user", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/{username}/following": {"get": {"tags": ["follows"], "summary": "List who a user follows", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/admin/dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Administrative overview", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/admin/users/{username}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Delete a user and their content", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}},
        "/admin/posts/{id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Delete any post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}},
        "/ws/ticket": {"post": {"security": [{"BearerAuth": []}], "tags": ["realtime"], "summary": "Issue a websocket ticket", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/ws": {"get": {"tags": ["realtime"], "summary": "Live notifications", "parameters": [{"type": "string", "name": "ticket", "in": "query", "required": true}], "responses": {"101": {"description": "Switching Protocols"}}}}
    },
    "definitions": {
        "models.Comment": {"type": "object", "properties": {"id": {"type": "integer"}, "post_id": {"type": "string"}, "author": {"type": "string"}, "text": {"type": "string"}, "created_at": {"type": "string"}}},
        "models.Post": {"type": "object", "properties": {"id": {"type": "string"}, "author": {"type": "string"}, "content": {"type": "string"}, "image": {"type": "string"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}, "like_count": {"type": "integer"}, "comment_count": {"type": "integer"}, "author_picture": {"type": "string"}, "likes": {"type": "array", "items": {"type": "string"}}, "liked": {"type": "boolean"}, "comments": {"type": "array", "items": {"$ref": "#/definitions/models.Comment"}}}},
        "models.FeedPage": {"type": "object", "properties": {"filter": {"type": "string"}, "page": {"type": "integer"}, "page_size": {"type": "integer"}, "has_more": {"type": "boolean"}, "posts": {"type": "array", "items": {"$ref": "#/definitions/models.Post"}}}},
        "models.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "string"}, "details": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "PeopleConnects API",
	Description:      "Social feed: posts, likes, comments, follows and live notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
