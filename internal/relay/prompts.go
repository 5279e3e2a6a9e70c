package relay

import (
	"fmt"
	"strings"
)

// JobFieldNames are the keys the extraction prompt asks the model to return.
var JobFieldNames = []string{
	"jobTitle",
	"companyName",
	"location",
	"jobType",
	"jobPostingUrl",
	"salaryRange",
	"applicationDeadline",
	"contactPerson",
	"contactEmail",
	"contactPhone",
	"notes",
	"nextStepsDate",
}

const cvReviewSystemPrompt = `You are an experienced recruiter and career coach who reviews CVs.
Give honest, specific and actionable feedback. Use short sections with headings:
Strengths, Weaknesses, Suggested Improvements and Overall Impression.
Write plain text, no tables.`

const cvReviewUserPrompt = `Review the following CV and explain how it could be improved for job applications.

CV:
%s`

const jobExtractSystemPrompt = `You extract structured data from job postings.
Reply with a single JSON object and nothing else. Do not add commentary.`

const jobExtractUserPrompt = `Extract the following fields from the job description below:
%s

Rules:
- Use null for any field that is not mentioned. Do not guess.
- jobType is one of "Full-time", "Part-time", "Contract", "Internship", "Remote" or null.
- Dates use the format YYYY-MM-DD.
- notes is a short summary of the key requirements.

Job description:
%s`

const tipSystemPrompt = `You are a friendly career coach who helps people with their job search.`

const tipUserPrompt = `Give one short, practical tip for someone who is actively applying for jobs.
Reply in exactly this format:
Title: <a short title>
Description: <one or two sentences>`

func cvReviewMessages(p Payload) (string, string) {
	return cvReviewSystemPrompt, fmt.Sprintf(cvReviewUserPrompt, p.Text)
}

func jobExtractMessages(p Payload) (string, string) {
	var fields strings.Builder
	for _, name := range JobFieldNames {
		fields.WriteString("- ")
		fields.WriteString(name)
		fields.WriteString("\n")
	}
	return jobExtractSystemPrompt, fmt.Sprintf(jobExtractUserPrompt, strings.TrimRight(fields.String(), "\n"), p.Text)
}

func tipMessages() (string, string) {
	return tipSystemPrompt, tipUserPrompt
}
