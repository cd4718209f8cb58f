// Package docs holds the swagger document served by the API
package docs

import "github.com/swaggo/swag"

// @title Newsdesk API
// @version 1.0
// @description Scraped news articles with sorting, date filtering, category filtering and search
// @BasePath /api

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Newsdesk API",
        "description": "Scraped news articles with sorting, date filtering, category filtering and search",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health Check",
                "operationId": "healthCheck",
                "responses": {
                    "200": {
                        "description": "Service is healthy",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "status": {"type": "string", "example": "healthy"},
                                "service": {"type": "string"},
                                "poller_active": {"type": "boolean"},
                                "scrape_running": {"type": "boolean"},
                                "articles": {"type": "integer"}
                            }
                        }
                    },
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/api/news": {
            "get": {
                "summary": "List Articles",
                "operationId": "getNews",
                "parameters": [
                    {"$ref": "#/parameters/sortBy"},
                    {"$ref": "#/parameters/fromDate"},
                    {"$ref": "#/parameters/toDate"},
                    {"$ref": "#/parameters/limit"}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/Articles"},
                    "400": {"$ref": "#/responses/Error"},
                    "500": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/api/news/category/{category}": {
            "get": {
                "summary": "List Articles By Category",
                "operationId": "getNewsByCategory",
                "parameters": [
                    {"name": "category", "in": "path", "required": true, "type": "string", "description": "Category label, case-insensitive"},
                    {"$ref": "#/parameters/sortBy"},
                    {"$ref": "#/parameters/fromDate"},
                    {"$ref": "#/parameters/toDate"},
                    {"$ref": "#/parameters/limit"}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/Articles"},
                    "400": {"$ref": "#/responses/Error"},
                    "404": {"$ref": "#/responses/Error"},
                    "500": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/api/search": {
            "get": {
                "summary": "Search Articles",
                "description": "Case-insensitive substring match on title or description",
                "operationId": "searchNews",
                "parameters": [
                    {"name": "q", "in": "query", "required": true, "type": "string", "maxLength": 500},
                    {"$ref": "#/parameters/sortBy"},
                    {"$ref": "#/parameters/fromDate"},
                    {"$ref": "#/parameters/toDate"},
                    {"$ref": "#/parameters/limit"}
                ],
                "responses": {
                    "200": {"$ref": "#/responses/Articles"},
                    "400": {"$ref": "#/responses/Error"},
                    "500": {"$ref": "#/responses/Error"}
                }
            }
        },
        "/api/categories": {
            "get": {
                "summary": "List Categories",
                "operationId": "getCategories",
                "responses": {
                    "200": {
                        "description": "Sorted category labels",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "categories": {"type": "array", "items": {"type": "string"}, "example": ["business", "top-stories", "world"]}
                            }
                        }
                    }
                }
            }
        },
        "/api/scrape-and-categorize": {
            "post": {
                "summary": "Trigger Scrape",
                "description": "Starts a background scrape with classification. A run already in progress is returned instead of starting another.",
                "operationId": "triggerScrape",
                "responses": {
                    "202": {
                        "description": "Run accepted",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "message": {"type": "string"},
                                "started": {"type": "boolean"},
                                "run": {"$ref": "#/definitions/Run"}
                            }
                        }
                    }
                }
            }
        },
        "/api/scrape/status": {
            "get": {
                "summary": "Scrape Status",
                "operationId": "getScrapeStatus",
                "responses": {
                    "200": {
                        "description": "Current and last run",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "is_polling": {"type": "boolean"},
                                "running": {"type": "boolean"},
                                "current": {"$ref": "#/definitions/Run"},
                                "last": {"$ref": "#/definitions/Run"}
                            }
                        }
                    }
                }
            }
        },
        "/api/ai-status": {
            "get": {
                "summary": "Classifier Status",
                "operationId": "getAIStatus",
                "responses": {
                    "200": {
                        "description": "Whether the classifier has valid credentials",
                        "schema": {
                            "type": "object",
                            "properties": {"is_configured": {"type": "boolean"}}
                        }
                    }
                }
            }
        },
        "/api/categorize/suggest": {
            "post": {
                "summary": "Suggest Categories",
                "operationId": "suggestCategories",
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "required": ["title"],
                            "properties": {
                                "title": {"type": "string"},
                                "description": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Up to three labels in order of relevance",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "suggestions": {"type": "array", "items": {"type": "string"}},
                                "is_configured": {"type": "boolean"}
                            }
                        }
                    },
                    "400": {"$ref": "#/responses/Error"}
                }
            }
        }
    },
    "parameters": {
        "sortBy": {"name": "sort_by", "in": "query", "type": "string", "enum": ["publishedAt", "publishedAt_asc", "relevancy"], "default": "publishedAt"},
        "fromDate": {"name": "from_date", "in": "query", "type": "string", "description": "YYYY-MM-DD or RFC 3339, inclusive"},
        "toDate": {"name": "to_date", "in": "query", "type": "string", "description": "YYYY-MM-DD (whole day) or RFC 3339, inclusive"},
        "limit": {"name": "limit", "in": "query", "type": "integer", "minimum": 1}
    },
    "responses": {
        "Articles": {
            "description": "Matching articles",
            "schema": {"type": "array", "items": {"$ref": "#/definitions/Article"}}
        },
        "Error": {
            "description": "Error",
            "schema": {"type": "object", "properties": {"error": {"type": "string"}}}
        }
    },
    "definitions": {
        "Article": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "url": {"type": "string"},
                "source": {"type": "string"},
                "category": {"type": "string"},
                "imageUrl": {"type": "string"},
                "description": {"type": "string"},
                "publishedAt": {"type": "string", "example": "2024-01-01T12:00:00Z"},
                "ai_categorized": {"type": "boolean"}
            }
        },
        "Run": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "trigger": {"type": "string", "enum": ["startup", "schedule", "api"]},
                "classify": {"type": "boolean"},
                "status": {"type": "string", "enum": ["running", "completed", "failed"]},
                "started_at": {"type": "string", "format": "date-time"},
                "finished_at": {"type": "string", "format": "date-time"},
                "error": {"type": "string"},
                "stats": {
                    "type": "object",
                    "properties": {
                        "pages": {"type": "integer"},
                        "failed_pages": {"type": "integer"},
                        "found": {"type": "integer"},
                        "unique": {"type": "integer"},
                        "classified": {"type": "integer"},
                        "inserted": {"type": "integer"}
                    }
                }
            }
        }
    }
}`
