package gateway

import (
	"fmt"
	"strings"

	"jobhunt-ai/internal/types"
)

const analyzeResumePrompt = `You are an expert Resume Reviewer and ATS (Applicant Tracking System) specialist.
Analyze the attached resume document.

Provide the output in JSON format matching this schema:
{
  "summary": "Professional summary of the candidate (max 3 sentences)",
  "skills": ["List", "of", "extracted", "skills"],
  "experienceLevel": "Entry/Mid/Senior/Executive",
  "atsScore": 0-100 (integer representing ATS friendliness),
  "atsIssues": ["List of specific formatting or content issues that might hurt ATS parsing"],
  "improvementAreas": ["List of 3-5 specific suggestions to improve the resume"],
  "suggestedRoles": ["List of 3 job titles this candidate is best suited for"]
}`

func profileExtractionPrompt(url string) string {
	return fmt.Sprintf("Go to %s and extract the full professional profile text including experience, skills, and about section.", url)
}

func mergeProfilePrompt(currentJSON, profileContext string) string {
	return fmt.Sprintf(`I have an existing resume analysis and new LinkedIn profile data.
Merge them to create a more comprehensive profile analysis.

EXISTING ANALYSIS:
%s

LINKEDIN DATA:
%s

Task:
1. Update the 'summary' to be more comprehensive if LinkedIn provides more context.
2. Add any new 'skills' found on LinkedIn that were missing from the resume.
3. Re-evaluate 'atsScore' - if the LinkedIn data fills gaps, increase the score slightly (max +10), but note that the resume file itself is what ATS parses, so don't increase it too much if the file didn't change.
4. Update 'suggestedRoles' if the LinkedIn profile suggests a different career trajectory.
5. Keep the JSON structure exactly the same.

Output JSON matching the ResumeAnalysis schema.`, currentJSON, profileContext)
}

func jobSearchPrompt(query, location string, filters types.JobFilters, limit int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Find %d active and recent job listings for %q", limit, query)
	if location != "" {
		fmt.Fprintf(&sb, " in %s", location)
	}
	sb.WriteString(".\n")
	if f := filters.Describe(); f != "" {
		fmt.Fprintf(&sb, "Filters: %s\n", f)
	}
	sb.WriteString("\nFocus on finding real, currently open positions.\n")
	sb.WriteString("For each job, extract: Title, Company, Location, a brief Snippet/Description, and the Apply URL if available.")
	return sb.String()
}

func jobFormattingPrompt(groundedText string) string {
	return fmt.Sprintf(`Based on the following text which contains job search results, extract a list of jobs in JSON format.

Source Text:
%s

Output Schema:
[
  {
    "id": "generate_a_unique_random_string_id",
    "title": "Job Title",
    "company": "Company Name",
    "location": "Location",
    "snippet": "Brief description",
    "url": "Apply URL if found, else null"
  }
]`, groundedText)
}

func jobMatchPrompt(profileText string, job types.JobListing) string {
	return fmt.Sprintf(`I need to apply for the following job. Compare my resume profile with the job description.

MY PROFILE:
%s

JOB DETAILS:
Title: %s
Company: %s
Snippet: %s

Please generate a JSON response with:
{
  "matchScore": 0-100 (integer),
  "missingSkills": ["List", "of", "missing", "skills"],
  "strengths": ["List", "of", "matching", "skills"],
  "reasoning": "One paragraph explaining the score",
  "coverLetter": "A full professional cover letter text tailored to this job (plaintext, no markdown)",
  "coldEmail": "A short, punchy cold email to a recruiter regarding this role (subject line included)"
}`, profileText, job.Title, job.Company, job.Snippet)
}

func connectionNotePrompt(job types.JobListing, skills []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a short (under 300 chars) LinkedIn connection request note to a recruiter at %s regarding the %s role.", job.Company, job.Title)
	if len(skills) > 0 {
		fmt.Fprintf(&sb, " Mention my skills in %s.", strings.Join(skills, ", "))
	}
	sb.WriteString(" Return only the text.")
	return sb.String()
}
