// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package datahugger crawls research-data repositories (Dataverse, Zenodo,
// OSF, GitHub, Dryad, DataOne, HuggingFace, HAL and arXiv) through a single
// backend-agnostic surface and downloads their files with streaming checksum
// verification.
//
// A caller resolves a landing-page URL or DOI link to a Dataset, then either
// streams its Entry tree with Crawl/CrawlFiles or downloads it directly with
// DownloadWithValidation.
package datahugger
