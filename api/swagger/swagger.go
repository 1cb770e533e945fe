package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"},
        "ServiceToken": {"type": "apiKey", "in": "header", "name": "X-Service-Token"}
    },
    "tags": [
        {"name": "Auth", "description": "Registration, login and token refresh"},
        {"name": "Users", "description": "Account administration and bulk student import"},
        {"name": "Courses", "description": "Courses and enrollment requests"},
        {"name": "Exams", "description": "Exams, questions and eligibility"},
        {"name": "Results", "description": "Grading, listings and exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register an account (teachers start pending)",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin self-registration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with email and password",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Account pending approval", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token for a new pair",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/password": {
            "put": {
                "tags": ["Auth"],
                "summary": "Change the caller's password",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}],
                "responses": {"204": {"description": "Changed"}}
            }
        },
        "/users": {
            "get": {"tags": ["Users"], "summary": "List users", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/users/students": {
            "get": {"tags": ["Users"], "summary": "List students", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/users/students/upload": {
            "post": {
                "tags": ["Users"],
                "summary": "Register students from a workbook",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "type": "file", "required": true}],
                "responses": {"200": {"description": "Import summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/users/students/template": {
            "get": {"tags": ["Users"], "summary": "Download the student workbook template", "security": [{"BearerAuth": []}], "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "Workbook"}}}
        },
        "/users/stats": {
            "get": {"tags": ["Users"], "summary": "Approved user counts by role", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/users/profile": {
            "get": {"tags": ["Users"], "summary": "Current user's profile", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/users/search/email": {
            "get": {
                "tags": ["Users"],
                "summary": "Find a user by email",
                "security": [{"BearerAuth": []}, {"ServiceToken": []}],
                "parameters": [{"name": "email", "in": "query", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found"}}
            }
        },
        "/users/{id}": {
            "get": {"tags": ["Users"], "summary": "Get a user", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Users"], "summary": "Delete a user", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/users/{id}/approve": {
            "put": {"tags": ["Users"], "summary": "Approve a pending account", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/courses": {
            "get": {"tags": ["Courses"], "summary": "List courses", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {
                "tags": ["Courses"],
                "summary": "Create a course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}/enroll/{studentId}": {
            "post": {
                "tags": ["Courses"],
                "summary": "Request enrollment in a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "studentId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"202": {"description": "Enrollment requested"}}
            }
        },
        "/courses/{id}/students/upload": {
            "post": {
                "tags": ["Courses"],
                "summary": "Enroll students from a workbook",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {"200": {"description": "Import summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/enrollments/{enrollmentId}/approve": {
            "put": {"tags": ["Courses"], "summary": "Approve an enrollment request", "security": [{"BearerAuth": []}], "parameters": [{"name": "enrollmentId", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/courses/enrollments/{enrollmentId}/reject": {
            "put": {"tags": ["Courses"], "summary": "Reject an enrollment request", "security": [{"BearerAuth": []}], "parameters": [{"name": "enrollmentId", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/exams": {
            "get": {"tags": ["Exams"], "summary": "List active exams", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {
                "tags": ["Exams"],
                "summary": "Create an exam with its questions",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExamRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exams/{id}": {
            "get": {"tags": ["Exams"], "summary": "Get an exam; students receive shuffled questions", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "delete": {"tags": ["Exams"], "summary": "Delete an exam", "security": [{"BearerAuth": []}], "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/exams/student/{studentId}": {
            "get": {
                "tags": ["Exams"],
                "summary": "Exams a student may take",
                "description": "meta.degraded is true when course-derived exams could not be resolved.",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "studentId", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exams/parse-questions": {
            "post": {
                "tags": ["Exams"],
                "summary": "Parse a question workbook without saving",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "type": "file", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/results/generate": {
            "post": {
                "tags": ["Results"],
                "summary": "Grade and store a result",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateResultRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/results/exam/{examId}/export": {
            "get": {
                "tags": ["Results"],
                "summary": "Export an exam's results",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "examId", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["full_name", "email", "password", "role"],
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "role": {"type": "string", "enum": ["STUDENT", "TEACHER"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {"refresh_token": {"type": "string"}}
        },
        "ChangePasswordRequest": {
            "type": "object",
            "required": ["old_password", "new_password"],
            "properties": {"old_password": {"type": "string"}, "new_password": {"type": "string", "minLength": 6}}
        },
        "CreateCourseRequest": {
            "type": "object",
            "required": ["title", "teacher_id"],
            "properties": {"title": {"type": "string"}, "description": {"type": "string"}, "teacher_id": {"type": "string"}}
        },
        "QuestionInput": {
            "type": "object",
            "required": ["text", "correct_option"],
            "properties": {
                "text": {"type": "string"},
                "option_a": {"type": "string"},
                "option_b": {"type": "string"},
                "option_c": {"type": "string"},
                "option_d": {"type": "string"},
                "correct_option": {"type": "string", "enum": ["A", "B", "C", "D"]},
                "marks": {"type": "integer"}
            }
        },
        "CreateExamRequest": {
            "type": "object",
            "required": ["title", "teacher_id"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "total_marks": {"type": "integer"},
                "teacher_id": {"type": "string"},
                "course_id": {"type": "string"},
                "scheduled_time": {"type": "string", "format": "date-time"},
                "start_time": {"type": "string", "format": "date-time"},
                "end_time": {"type": "string", "format": "date-time"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/QuestionInput"}}
            }
        },
        "GenerateResultRequest": {
            "type": "object",
            "required": ["student_id", "exam_id", "total_marks"],
            "properties": {
                "student_id": {"type": "string"},
                "exam_id": {"type": "string"},
                "score": {"type": "integer"},
                "total_marks": {"type": "integer"}
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
                "meta": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Pariksha Exam Platform API",
	Description:      "Course, exam, result and user services of the Pariksha online examination platform.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
