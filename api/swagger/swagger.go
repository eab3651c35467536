package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Paper Track API",
        "description": "Diploma paper document lifecycle service",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Papers", "description": "Paper registration and evaluation"},
        {"name": "Documents", "description": "Required documents and version log"},
        {"name": "Reuploads", "description": "Secretary reupload requests"},
        {"name": "Session", "description": "Global session settings"},
        {"name": "Students", "description": "Student profile and extra data"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/me/paper": {
            "get": {
                "tags": ["Papers"],
                "summary": "Get the authenticated student's paper",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/papers": {
            "get": {
                "tags": ["Papers"],
                "summary": "List papers",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "committeeId", "in": "query", "type": "string"},
                    {"name": "submitted", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Papers"],
                "summary": "Register a paper",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePaperRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/papers/{id}": {
            "get": {
                "tags": ["Papers"],
                "summary": "Get paper",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Papers"],
                "summary": "Update paper title",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePaperTitleRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/papers/{id}/submit": {
            "post": {
                "tags": ["Papers"],
                "summary": "Submit paper",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Already submitted"}
                }
            }
        },
        "/papers/{id}/validate": {
            "post": {
                "tags": ["Papers"],
                "summary": "Record validity decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidatePaperRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/papers/{id}/grade": {
            "post": {
                "tags": ["Papers"],
                "summary": "Record final grade",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradePaperRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/papers/{id}/committee": {
            "post": {
                "tags": ["Papers"],
                "summary": "Assign evaluation committee",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignCommitteeRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/papers/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List required documents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Upload a document version",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "name", "in": "formData", "required": true, "type": "string"},
                    {"name": "variant", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Upload denied"}
                }
            }
        },
        "/papers/{id}/documents/{name}/sign": {
            "post": {
                "tags": ["Documents"],
                "summary": "Produce the signed variant of a generated document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/papers/{id}/documents/{name}/history": {
            "get": {
                "tags": ["Documents"],
                "summary": "Full version history for a document slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/papers/{id}/documents/{name}/preview": {
            "get": {
                "tags": ["Documents"],
                "summary": "Render a generated document without persisting it",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF payload"}
                }
            }
        },
        "/papers/{id}/regenerate": {
            "post": {
                "tags": ["Documents"],
                "summary": "Run a regeneration pass over generated documents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RegenerationReport"}}
                }
            }
        },
        "/documents/{versionId}": {
            "delete": {
                "tags": ["Documents"],
                "summary": "Retire a document version",
                "parameters": [
                    {"name": "versionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/documents/{versionId}/url": {
            "get": {
                "tags": ["Documents"],
                "summary": "Issue a signed download token",
                "parameters": [
                    {"name": "versionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DownloadURLResponse"}}
                }
            }
        },
        "/downloads": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download a version payload with a signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File payload"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        },
        "/papers/{id}/reuploads": {
            "get": {
                "tags": ["Reuploads"],
                "summary": "List reupload requests for a paper",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reuploads"],
                "summary": "Create a batch of reupload requests",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReuploadBatchRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reuploads/{requestId}": {
            "delete": {
                "tags": ["Reuploads"],
                "summary": "Cancel a reupload request",
                "parameters": [
                    {"name": "requestId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/session": {
            "get": {
                "tags": ["Session"],
                "summary": "Get session settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SessionSettings"}}
                }
            },
            "put": {
                "tags": ["Session"],
                "summary": "Replace session settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SessionSettings"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student profile",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/extra-data": {
            "put": {
                "tags": ["Students"],
                "summary": "Upsert student extra data",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentExtraData"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
        },
        "CreatePaperRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "type": {"type": "string", "enum": ["BACHELOR", "DIPLOMA", "MASTER"]},
                "title": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["student_id", "teacher_id", "type", "title"]
        },
        "UpdatePaperTitleRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"}
            },
            "required": ["title"]
        },
        "ValidatePaperRequest": {
            "type": "object",
            "properties": {
                "is_valid": {"type": "boolean"}
            },
            "required": ["is_valid"]
        },
        "GradePaperRequest": {
            "type": "object",
            "properties": {
                "grade": {"type": "number"}
            },
            "required": ["grade"]
        },
        "AssignCommitteeRequest": {
            "type": "object",
            "properties": {
                "committee_id": {"type": "string"}
            },
            "required": ["committee_id"]
        },
        "CreateReuploadBatchRequest": {
            "type": "object",
            "properties": {
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ReuploadEntry"}
                }
            },
            "required": ["entries"]
        },
        "ReuploadEntry": {
            "type": "object",
            "properties": {
                "document_name": {"type": "string"},
                "deadline": {"type": "string", "format": "date-time"},
                "comment": {"type": "string"}
            },
            "required": ["document_name", "deadline"]
        },
        "SessionSettings": {
            "type": "object",
            "properties": {
                "session_name": {"type": "string"},
                "current_promotion": {"type": "string"},
                "apply_start_date": {"type": "string", "format": "date-time"},
                "apply_end_date": {"type": "string", "format": "date-time"},
                "file_submission_start": {"type": "string", "format": "date-time"},
                "file_submission_end": {"type": "string", "format": "date-time"},
                "paper_submission_end": {"type": "string", "format": "date-time"},
                "allow_grading": {"type": "boolean"}
            }
        },
        "StudentExtraData": {
            "type": "object",
            "properties": {
                "birth_last_name": {"type": "string"},
                "parent_initial": {"type": "string"},
                "father_name": {"type": "string"},
                "mother_name": {"type": "string"},
                "civil_state": {"type": "string", "enum": ["NOT_MARRIED", "MARRIED", "DIVORCED", "WIDOW", "RE_MARRIED"]},
                "date_of_birth": {"type": "string", "format": "date-time"},
                "place_of_birth": {"type": "string"},
                "personal_number": {"type": "string"},
                "address": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "DocumentVersion": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "paper_id": {"type": "string"},
                "name": {"type": "string"},
                "variant": {"type": "string", "enum": ["GENERATED", "SIGNED", "COPY"]},
                "mime_type": {"type": "string"},
                "uploaded_at": {"type": "string", "format": "date-time"},
                "retired_at": {"type": "string", "format": "date-time"}
            }
        },
        "RegenerationReport": {
            "type": "object",
            "properties": {
                "paper_id": {"type": "string"},
                "generated": {"type": "array", "items": {"type": "string"}},
                "unchanged": {"type": "array", "items": {"type": "string"}},
                "failures": {"type": "object"}
            }
        },
        "DownloadURLResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
